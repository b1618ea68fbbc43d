// SPDX-License-Identifier: MIT

// Package access implements the request-time gate for proxied media
// requests: credential check, token decode, expiration and IP-binding
// checks. Denial reasons stay internal; callers expose one generic
// forbidden signal regardless of which check failed.
package access

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/mediagate/mediagate/internal/token"
)

var (
	// ErrBadCredential means neither credential channel matched the
	// configured password.
	ErrBadCredential = errors.New("access: invalid credential")

	// ErrExpired means the token carries an expiration instant that has
	// passed.
	ErrExpired = errors.New("access: token expired")

	// ErrIPMismatch means the token is bound to an address the observed
	// client address does not match.
	ErrIPMismatch = errors.New("access: client address not bound to token")
)

// Verifier checks proxied requests against an immutable configured
// password. All methods are safe for concurrent use; the only state is
// the password and the codec's derived key.
type Verifier struct {
	password string
	codec    *token.Codec

	// now is stubbed in tests.
	now func() time.Time
}

// NewVerifier builds a verifier for the configured password. An empty
// password selects open mode: every credential check passes and tokens
// are expected in their plain representation.
func NewVerifier(password string) (*Verifier, error) {
	codec, err := token.NewCodec(password)
	if err != nil {
		return nil, err
	}
	return &Verifier{password: password, codec: codec, now: time.Now}, nil
}

// Authorize reports whether either credential channel carries the
// configured password. Comparison is constant time. With no password
// configured every request is authorized unconditionally.
func (v *Verifier) Authorize(queryCred, headerCred string) bool {
	if v.password == "" {
		return true
	}
	q := subtle.ConstantTimeCompare([]byte(queryCred), []byte(v.password))
	h := subtle.ConstantTimeCompare([]byte(headerCred), []byte(v.password))
	return q|h == 1
}

// Verify runs the full gate: credential check, token decode with the
// configured password, then the post-decode expiration and IP-binding
// checks. On success it returns the decoded payload for hand-off to the
// proxy dispatcher; the verifier itself never performs the outbound
// fetch.
func (v *Verifier) Verify(tok, queryCred, headerCred, clientAddr string) (*token.Payload, error) {
	if !v.Authorize(queryCred, headerCred) {
		return nil, ErrBadCredential
	}

	p, err := v.codec.Decode(tok)
	if err != nil {
		return nil, err
	}

	if p.Expiration != 0 && v.now().After(time.Unix(p.Expiration, 0)) {
		return nil, ErrExpired
	}
	if p.IP != "" && !MatchBinding(p.IP, clientAddr) {
		return nil, ErrIPMismatch
	}
	return p, nil
}
