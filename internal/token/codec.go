// SPDX-License-Identifier: MIT

package token

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire format: one format byte followed by the body, base64url-encoded
// without padding. The format byte of a sealed token is bound as AEAD
// additional data, so tampering with it fails authentication.
const (
	formatPlain  byte = 0x01 // body is the CBOR payload (obfuscation only)
	formatSealed byte = 0x02 // body is nonce ‖ ciphertext ‖ tag
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. The same
// payload always serializes to identical bytes.
var encMode cbor.EncMode

// decMode accepts standard CBOR; unknown fields are ignored so older
// verifiers can read tokens minted by newer generators.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("token: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("token: CBOR decoder initialization failed: " + err.Error())
	}
}

// Codec encodes and decodes payloads for a fixed password. The zero
// password selects the plain (unsealed) representation. A Codec carries
// no state beyond the sealer's derived key and is safe for concurrent
// use.
type Codec struct {
	sealer *Sealer
}

// NewCodec returns a codec for the given password. An empty password
// yields a codec that produces and accepts plain tokens only.
func NewCodec(password string) (*Codec, error) {
	if password == "" {
		return &Codec{}, nil
	}
	sealer, err := NewSealer(password)
	if err != nil {
		return nil, err
	}
	return &Codec{sealer: sealer}, nil
}

// Encode validates p and serializes it into an opaque URL-safe token.
func (c *Codec) Encode(p *Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	body, err := encMode.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("token: encoding payload: %w", err)
	}

	if c.sealer == nil {
		out := make([]byte, 0, 1+len(body))
		out = append(out, formatPlain)
		out = append(out, body...)
		return base64.RawURLEncoding.EncodeToString(out), nil
	}

	sealed, err := c.sealer.Seal(body, []byte{formatSealed})
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, 1+len(sealed))
	out = append(out, formatSealed)
	out = append(out, sealed...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decode parses an opaque token back into a payload. It fails with
// ErrMalformed when the token is structurally invalid and with
// ErrAuthenticationFailed when the seal does not verify, including the
// case of a plain token presented to a sealing codec.
func (c *Codec) Decode(s string) (*Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", ErrMalformed)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: truncated", ErrMalformed)
	}

	body := raw[1:]
	if c.sealer != nil {
		if raw[0] != formatSealed {
			return nil, ErrAuthenticationFailed
		}
		body, err = c.sealer.Open(body, raw[:1])
		if err != nil {
			return nil, err
		}
	} else if raw[0] != formatPlain {
		return nil, fmt.Errorf("%w: unknown format", ErrMalformed)
	}

	var p Payload
	if err := decMode.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", ErrMalformed)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &p, nil
}

// Encode serializes p with a one-off codec for the given password.
func Encode(p *Payload, password string) (string, error) {
	c, err := NewCodec(password)
	if err != nil {
		return "", err
	}
	return c.Encode(p)
}

// Decode parses a token with a one-off codec for the given password.
func Decode(s, password string) (*Payload, error) {
	c, err := NewCodec(password)
	if err != nil {
		return nil, err
	}
	return c.Decode(s)
}
