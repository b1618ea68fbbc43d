// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
)

// DeprecationConfig holds configuration for API deprecation warnings.
type DeprecationConfig struct {
	SunsetDate    string // Date when the deprecated API will be removed (RFC3339)
	SuccessorPath string // Path to the successor endpoint
}

// deprecationMiddleware adds deprecation headers to responses following
// RFC 8594 (Sunset header) and standard deprecation practices.
func deprecationMiddleware(cfg DeprecationConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Deprecation", "true")

			if cfg.SunsetDate != "" {
				w.Header().Set("Sunset", cfg.SunsetDate)
			}
			if cfg.SuccessorPath != "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, cfg.SuccessorPath))
			}

			warningMsg := "This API is deprecated"
			if cfg.SuccessorPath != "" {
				warningMsg += fmt.Sprintf(". Use %s instead", cfg.SuccessorPath)
			}
			w.Header().Set("Warning", fmt.Sprintf(`299 - "%s"`, warningMsg))

			next.ServeHTTP(w, r)
		})
	}
}
