// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mediagate/mediagate/internal/urlgen"
)

// generateURLRequest is the body of a single-URL generation call.
type generateURLRequest struct {
	MediaflowProxyURL string            `json:"mediaflow_proxy_url"`
	Endpoint          string            `json:"endpoint"`
	DestinationURL    string            `json:"destination_url"`
	QueryParams       map[string]string `json:"query_params"`
	RequestHeaders    map[string]string `json:"request_headers"`
	ResponseHeaders   map[string]string `json:"response_headers"`
	APIPassword       string            `json:"api_password"`
	Expiration        int64             `json:"expiration"`
	IP                string            `json:"ip"`
	Filename          string            `json:"filename"`
}

// generateURLsRequest is the body of a batch generation call: shared
// defaults plus ordered items.
type generateURLsRequest struct {
	MediaflowProxyURL string            `json:"mediaflow_proxy_url"`
	APIPassword       string            `json:"api_password"`
	Expiration        int64             `json:"expiration"`
	IP                string            `json:"ip"`
	Items             []generateURLItem `json:"items"`
}

type generateURLItem struct {
	Endpoint        string            `json:"endpoint"`
	DestinationURL  string            `json:"destination_url"`
	QueryParams     map[string]string `json:"query_params"`
	RequestHeaders  map[string]string `json:"request_headers"`
	ResponseHeaders map[string]string `json:"response_headers"`
	Filename        string            `json:"filename"`
}

// decodeBody parses a JSON request body into v, rejecting unknown
// fields. It writes the error response itself and reports success.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) handleGenerateURL(w http.ResponseWriter, r *http.Request) {
	var req generateURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.generateSingle(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// handleGenerateEncodedURL is the deprecated single-URL alias. Identical
// semantics, legacy response key.
func (s *Server) handleGenerateEncodedURL(w http.ResponseWriter, r *http.Request) {
	var req generateURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.generateSingle(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"encoded_url": u})
}

func (s *Server) handleGenerateURLs(w http.ResponseWriter, r *http.Request) {
	var req generateURLsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]urlgen.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = urlgen.Item{
			Endpoint:        item.Endpoint,
			DestinationURL:  item.DestinationURL,
			QueryParams:     item.QueryParams,
			RequestHeaders:  item.RequestHeaders,
			ResponseHeaders: item.ResponseHeaders,
			Filename:        item.Filename,
		}
	}

	proxyURL, err := s.proxyURL(req.MediaflowProxyURL)
	if err != nil {
		writeError(w, err)
		return
	}

	urls, err := urlgen.Batch(r.Context(), urlgen.BatchRequest{
		ProxyURL:    proxyURL,
		APIPassword: req.APIPassword,
		Expiration:  expirationTime(req.Expiration),
		IP:          req.IP,
		Items:       items,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"urls": urls})
}

func (s *Server) generateSingle(req generateURLRequest) (string, error) {
	proxyURL, err := s.proxyURL(req.MediaflowProxyURL)
	if err != nil {
		return "", err
	}
	return urlgen.Single(urlgen.Request{
		ProxyURL:        proxyURL,
		Endpoint:        req.Endpoint,
		DestinationURL:  req.DestinationURL,
		QueryParams:     req.QueryParams,
		RequestHeaders:  req.RequestHeaders,
		ResponseHeaders: req.ResponseHeaders,
		APIPassword:     req.APIPassword,
		Expiration:      expirationTime(req.Expiration),
		IP:              req.IP,
		Filename:        req.Filename,
	})
}

// proxyURL resolves the base URL for generated links: the request value
// wins, the configured public URL is the fallback.
func (s *Server) proxyURL(requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL, nil
	}
	return "", errors.New("mediaflow_proxy_url is required")
}

func expirationTime(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
