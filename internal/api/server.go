// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of mediagate: URL generation
// endpoints, the verification gate in front of the proxy dispatcher,
// and operational endpoints.
package api

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mediagate/mediagate/internal/access"
	"github.com/mediagate/mediagate/internal/config"
)

// Server is the HTTP API server. Its configuration is immutable after
// construction.
type Server struct {
	cfg        config.Config
	verifier   *access.Verifier
	dispatcher Dispatcher
	trusted    []*net.IPNet
}

// NewServer builds a server from the given configuration. A nil
// dispatcher is replaced by one that refuses every proxied request, so
// the generation and verification surface works standalone.
func NewServer(cfg config.Config, dispatcher Dispatcher) (*Server, error) {
	verifier, err := access.NewVerifier(cfg.APIPassword)
	if err != nil {
		return nil, err
	}
	if dispatcher == nil {
		dispatcher = DispatcherFunc(unimplementedDispatch)
	}
	return &Server{
		cfg:        cfg,
		verifier:   verifier,
		dispatcher: dispatcher,
		trusted:    cfg.ParseTrustedProxies(),
	}, nil
}

// Router assembles the chi router with the middleware stack and all
// routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(normalizePath)
	r.Use(cors)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimitRPS, s.cfg.RateLimitWindow))
		}
		r.Post("/generate_url", s.handleGenerateURL)
		r.Post("/generate_urls", s.handleGenerateURLs)
		r.With(deprecationMiddleware(DeprecationConfig{
			SuccessorPath: "/generate_url",
		})).Post("/generate_encrypted_or_encoded_url", s.handleGenerateEncodedURL)
	})

	r.HandleFunc("/proxy/*", s.handleProxy)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
