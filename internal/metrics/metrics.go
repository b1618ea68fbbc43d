// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus counters for token generation and
// verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_tokens_issued_total",
		Help: "Tokens issued by representation",
	}, []string{"mode"}) // mode=plain|sealed

	generateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediagate_generate_failures_total",
		Help: "URL generation calls rejected during validation or encoding",
	})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagate_token_verifications_total",
		Help: "Token verification attempts by outcome",
	}, []string{"outcome"}) // outcome=authorized|bad_credential|malformed|authentication_failed|expired|ip_mismatch
)

func mode(sealed bool) string {
	if sealed {
		return "sealed"
	}
	return "plain"
}

// TokenIssued records a single issued token.
func TokenIssued(sealed bool) {
	tokensIssued.WithLabelValues(mode(sealed)).Inc()
}

// TokensIssued records n issued tokens from one batch call.
func TokensIssued(sealed bool, n int) {
	tokensIssued.WithLabelValues(mode(sealed)).Add(float64(n))
}

// GenerateFailed records a rejected generation call.
func GenerateFailed() {
	generateFailures.Inc()
}

// Verification records the outcome of one verification attempt.
func Verification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}
