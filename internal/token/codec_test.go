// SPDX-License-Identifier: MIT

package token

import (
	"encoding/base64"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() *Payload {
	return &Payload{
		DestinationURL: "https://cdn.example.com/live/stream.m3u8",
		Endpoint:       "proxy/hls",
		QueryParams:    map[string]string{"api_password": "s3cret", "quality": "720p"},
		RequestHeaders: map[string]string{"Referer": "https://player.example.com/"},
		ResponseHeaders: map[string]string{
			"Access-Control-Allow-Origin": "*",
		},
		Expiration:  1900000000,
		IP:          "203.0.113.7",
		Filename:    "stream.m3u8",
		APIPassword: "s3cret",
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"plain", ""},
		{"sealed", "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := samplePayload()
			tok, err := Encode(want, tt.password)
			require.NoError(t, err)

			got, err := Decode(tok, tt.password)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripMinimalPayload(t *testing.T) {
	want := &Payload{
		DestinationURL: "http://origin.example.net/video.mp4",
		Endpoint:       "proxy/stream",
	}
	tok, err := Encode(want, "")
	require.NoError(t, err)

	got, err := Decode(tok, "")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	// Plain encoding has no nonce, so identical payloads must produce
	// identical tokens.
	a, err := Encode(samplePayload(), "")
	require.NoError(t, err)
	b, err := Encode(samplePayload(), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSealedNonceFreshness(t *testing.T) {
	a, err := Encode(samplePayload(), "pw")
	require.NoError(t, err)
	b, err := Encode(samplePayload(), "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "sealed tokens must differ due to fresh nonces")

	pa, err := Decode(a, "pw")
	require.NoError(t, err)
	pb, err := Decode(b, "pw")
	require.NoError(t, err)
	if diff := cmp.Diff(pa, pb); diff != "" {
		t.Fatalf("payload mismatch (-a +b):\n%s", diff)
	}
}

func TestTamperDetection(t *testing.T) {
	tok, err := Encode(samplePayload(), "pw")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)

	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		_, err := Decode(base64.RawURLEncoding.EncodeToString(tampered), "pw")
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "byte %d", i)
	}
}

func TestWrongPassword(t *testing.T) {
	tok, err := Encode(samplePayload(), "right")
	require.NoError(t, err)

	_, err = Decode(tok, "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestModeMismatch(t *testing.T) {
	plain, err := Encode(samplePayload(), "")
	require.NoError(t, err)
	sealed, err := Encode(samplePayload(), "pw")
	require.NoError(t, err)

	// A plain token presented to a sealing codec must not silently
	// decode; neither may a sealed token presented without a password.
	_, err = Decode(plain, "pw")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = Decode(sealed, "")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"not base64", "not/base64!!"},
		{"single byte", base64.RawURLEncoding.EncodeToString([]byte{formatPlain})},
		{"unknown format byte", base64.RawURLEncoding.EncodeToString([]byte{0x7f, 0x00})},
		{"garbage body", base64.RawURLEncoding.EncodeToString([]byte{formatPlain, 0xff, 0x00, 0x13})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tok, "")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeRejectsInvalidPayload(t *testing.T) {
	// A structurally valid CBOR body that violates payload invariants
	// must still be rejected.
	p := samplePayload()
	p.Endpoint = ""
	body, err := encMode.Marshal(p)
	require.NoError(t, err)

	tok := base64.RawURLEncoding.EncodeToString(append([]byte{formatPlain}, body...))
	_, err = Decode(tok, "")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Payload)
	}{
		{"missing destination", func(p *Payload) { p.DestinationURL = "" }},
		{"relative destination", func(p *Payload) { p.DestinationURL = "/just/a/path" }},
		{"missing endpoint", func(p *Payload) { p.Endpoint = "" }},
		{"negative expiration", func(p *Payload) { p.Expiration = -1 }},
		{"bad ip binding", func(p *Payload) { p.IP = "not-an-ip" }},
		{"bad cidr", func(p *Payload) { p.IP = "10.0.0.0/99" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePayload()
			tt.mutate(p)
			_, err := Encode(p, "")
			assert.Error(t, err)
		})
	}
}
