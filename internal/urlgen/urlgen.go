// SPDX-License-Identifier: MIT

// Package urlgen builds proxied media URLs: it merges shared defaults
// with per-item parameters, encodes the resulting payload into a token
// and appends it to the proxy base URL. Batch generation is all or
// nothing and preserves input order.
package urlgen

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediagate/mediagate/internal/metrics"
	"github.com/mediagate/mediagate/internal/normalize"
	"github.com/mediagate/mediagate/internal/token"
)

const (
	// TokenParam is the query parameter carrying the encoded token on
	// generated URLs.
	TokenParam = "token"

	// PasswordParam is the reserved query parameter under which a shared
	// password is injected when an item did not set one itself.
	PasswordParam = "api_password"
)

// Request describes a single URL generation call.
type Request struct {
	ProxyURL        string
	Endpoint        string
	DestinationURL  string
	QueryParams     map[string]string
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	APIPassword     string
	Expiration      time.Time
	IP              string
	Filename        string
}

// BatchRequest describes a multi-URL generation call: shared defaults
// plus an ordered list of per-item parameters.
type BatchRequest struct {
	ProxyURL    string
	APIPassword string
	Expiration  time.Time
	IP          string
	Items       []Item
}

// Item carries the per-item fields of a batch request. Item-level values
// take precedence over the shared defaults.
type Item struct {
	Endpoint        string
	DestinationURL  string
	QueryParams     map[string]string
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	Filename        string
}

// Single generates one proxied URL.
func Single(req Request) (string, error) {
	u, err := single(req)
	if err != nil {
		metrics.GenerateFailed()
		return "", err
	}
	metrics.TokenIssued(req.APIPassword != "")
	return u, nil
}

func single(req Request) (string, error) {
	base, err := parseProxyURL(req.ProxyURL)
	if err != nil {
		return "", err
	}
	if err := validateExpiration(req.Expiration); err != nil {
		return "", err
	}

	codec, err := token.NewCodec(req.APIPassword)
	if err != nil {
		return "", err
	}

	item := Item{
		Endpoint:        req.Endpoint,
		DestinationURL:  req.DestinationURL,
		QueryParams:     req.QueryParams,
		RequestHeaders:  req.RequestHeaders,
		ResponseHeaders: req.ResponseHeaders,
		Filename:        req.Filename,
	}
	payload := mergePayload(item, req.APIPassword, req.Expiration, req.IP)
	if err := payload.Validate(); err != nil {
		return "", err
	}

	tok, err := codec.Encode(payload)
	if err != nil {
		return "", err
	}
	return buildURL(base, payload, tok), nil
}

// Batch generates one URL per item, index-aligned with req.Items. Every
// item is validated before any token is emitted; the first invalid item
// fails the whole call with its index and no partial result. Encoding
// fans out across goroutines, one per item.
func Batch(ctx context.Context, req BatchRequest) ([]string, error) {
	urls, err := batch(ctx, req)
	if err != nil {
		metrics.GenerateFailed()
		return nil, err
	}
	metrics.TokensIssued(req.APIPassword != "", len(urls))
	return urls, nil
}

func batch(ctx context.Context, req BatchRequest) ([]string, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("urlgen: batch request has no items")
	}
	base, err := parseProxyURL(req.ProxyURL)
	if err != nil {
		return nil, err
	}
	if err := validateExpiration(req.Expiration); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(req.APIPassword)
	if err != nil {
		return nil, err
	}

	// Validation pass: all items checked before any encoding work.
	payloads := make([]*token.Payload, len(req.Items))
	for i, item := range req.Items {
		p := mergePayload(item, req.APIPassword, req.Expiration, req.IP)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		payloads[i] = p
	}

	urls := make([]string, len(payloads))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range payloads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tok, err := codec.Encode(p)
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			urls[i] = buildURL(base, p, tok)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// mergePayload applies the merge rules: item values win over shared
// defaults, and the shared password is injected under the reserved query
// key only when the item did not already set that key.
func mergePayload(item Item, password string, expiration time.Time, ip string) *token.Payload {
	query := cloneMap(item.QueryParams)
	if password != "" {
		if _, ok := query[PasswordParam]; !ok {
			if query == nil {
				query = make(map[string]string, 1)
			}
			query[PasswordParam] = password
		}
	}

	p := &token.Payload{
		DestinationURL:  item.DestinationURL,
		Endpoint:        item.Endpoint,
		QueryParams:     query,
		RequestHeaders:  canonicalHeaders(item.RequestHeaders),
		ResponseHeaders: canonicalHeaders(item.ResponseHeaders),
		IP:              ip,
		Filename:        item.Filename,
		APIPassword:     password,
	}
	if !expiration.IsZero() {
		p.Expiration = expiration.Unix()
	}
	return p
}

func parseProxyURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("urlgen: proxy URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("urlgen: proxy URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("urlgen: proxy URL %q is not absolute", raw)
	}
	return u, nil
}

func validateExpiration(expiration time.Time) error {
	if expiration.IsZero() {
		return nil
	}
	if !expiration.After(time.Now()) {
		return fmt.Errorf("urlgen: expiration %s is not in the future", expiration.Format(time.RFC3339))
	}
	return nil
}

// buildURL joins the endpoint onto the proxy base path and appends the
// item query parameters plus the encoded token.
func buildURL(base *url.URL, p *token.Payload, tok string) string {
	u := *base
	u.Path = normalize.Path(strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p.Endpoint, "/"))

	q := u.Query()
	for k, v := range p.QueryParams {
		q.Set(k, v)
	}
	q.Set(TokenParam, tok)
	u.RawQuery = q.Encode()
	return u.String()
}

// canonicalHeaders copies a header map with keys folded to canonical
// MIME form, so lookups behave case-insensitively downstream. Later
// writes overwrite earlier ones when two keys fold together.
func canonicalHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
