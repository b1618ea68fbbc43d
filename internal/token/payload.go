// SPDX-License-Identifier: MIT

// Package token implements the stateless bearer token carried by proxied
// media URLs: a canonical CBOR payload, base64url-encoded and optionally
// sealed with authenticated encryption derived from a shared password.
package token

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Payload is the unit transported inside a token. It is constructed once
// at generation time, serialized, and reconstructed independently by the
// verifier; it is never persisted.
type Payload struct {
	DestinationURL  string            `cbor:"1,keyasint" json:"destination_url"`
	Endpoint        string            `cbor:"2,keyasint" json:"endpoint"`
	QueryParams     map[string]string `cbor:"3,keyasint,omitempty" json:"query_params,omitempty"`
	RequestHeaders  map[string]string `cbor:"4,keyasint,omitempty" json:"request_headers,omitempty"`
	ResponseHeaders map[string]string `cbor:"5,keyasint,omitempty" json:"response_headers,omitempty"`
	Expiration      int64             `cbor:"6,keyasint,omitempty" json:"expiration,omitempty"`
	IP              string            `cbor:"7,keyasint,omitempty" json:"ip,omitempty"`
	Filename        string            `cbor:"8,keyasint,omitempty" json:"filename,omitempty"`
	APIPassword     string            `cbor:"9,keyasint,omitempty" json:"api_password,omitempty"`
}

// Validate checks the structural invariants that must hold before a
// payload is encoded and after one is decoded.
func (p *Payload) Validate() error {
	if p.DestinationURL == "" {
		return errors.New("destination_url is required")
	}
	u, err := url.Parse(p.DestinationURL)
	if err != nil {
		return fmt.Errorf("destination_url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("destination_url %q is not an absolute URL", p.DestinationURL)
	}
	if p.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if p.Expiration < 0 {
		return fmt.Errorf("expiration %d is negative", p.Expiration)
	}
	if p.IP != "" {
		if err := validateBinding(p.IP); err != nil {
			return err
		}
	}
	return nil
}

// validateBinding accepts a literal IPv4/IPv6 address or a CIDR range.
func validateBinding(s string) error {
	if _, _, err := net.ParseCIDR(s); err == nil {
		return nil
	}
	if net.ParseIP(s) != nil {
		return nil
	}
	return fmt.Errorf("ip %q is neither an IP address nor a CIDR range", s)
}
