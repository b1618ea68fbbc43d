// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"

	"github.com/mediagate/mediagate/internal/access"
	"github.com/mediagate/mediagate/internal/log"
	"github.com/mediagate/mediagate/internal/metrics"
	"github.com/mediagate/mediagate/internal/token"
	"github.com/mediagate/mediagate/internal/urlgen"
)

// credentialHeader is the header channel carrying the shared secret,
// mirroring the query parameter of the same name.
const credentialHeader = "api_password"

// Dispatcher performs the outbound fetch-and-relay for an authorized
// proxied request: it fetches the payload's destination with the
// payload's request headers applied and streams the response back with
// the response headers overridden. The gate itself never performs
// network I/O.
type Dispatcher interface {
	Dispatch(w http.ResponseWriter, r *http.Request, p *token.Payload)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(w http.ResponseWriter, r *http.Request, p *token.Payload)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(w http.ResponseWriter, r *http.Request, p *token.Payload) {
	f(w, r, p)
}

func unimplementedDispatch(w http.ResponseWriter, r *http.Request, _ *token.Payload) {
	log.FromContext(r.Context()).Error().
		Str("event", "proxy.no_dispatcher").
		Msg("request authorized but no dispatcher is configured")
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "no upstream dispatcher configured"})
}

// handleProxy gates a proxied media request: credential check, token
// decode, expiration and IP-binding checks, then hand-off to the
// dispatcher. Every denial produces the same generic forbidden response;
// the specific reason is only logged and counted internally.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get(urlgen.TokenParam)
	queryCred := r.URL.Query().Get(urlgen.PasswordParam)
	headerCred := r.Header.Get(credentialHeader)

	payload, err := s.verifier.Verify(tok, queryCred, headerCred, s.clientIP(r))
	if err != nil {
		outcome := denialOutcome(err)
		metrics.Verification(outcome)
		log.FromContext(r.Context()).Warn().
			Str("event", "proxy.denied").
			Str("reason", outcome).
			Str("path", r.URL.Path).
			Msg("proxied request denied")
		writeForbidden(w)
		return
	}

	metrics.Verification("authorized")
	s.dispatcher.Dispatch(w, r, payload)
}

func denialOutcome(err error) string {
	switch {
	case errors.Is(err, access.ErrBadCredential):
		return "bad_credential"
	case errors.Is(err, access.ErrExpired):
		return "expired"
	case errors.Is(err, access.ErrIPMismatch):
		return "ip_mismatch"
	case errors.Is(err, token.ErrAuthenticationFailed):
		return "authentication_failed"
	default:
		return "malformed"
	}
}
