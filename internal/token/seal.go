// SPDX-License-Identifier: MIT

package token

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// keySize is the size in bytes of the derived symmetric key.
const keySize = 32

// hkdfInfo is the HKDF-SHA256 domain separation tag. Changing it
// invalidates every token sealed under a previous derivation.
var hkdfInfo = []byte("mediagate.token.v1")

// Sealer provides symmetric authenticated encryption keyed from a
// password. The key is derived deterministically from the password alone
// so any verifier holding the same password string can open tokens minted
// by any other instance. A Sealer holds only the derived key and is safe
// for unsynchronized concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte key from password via HKDF-SHA256 (nil
// salt, fixed info string) and prepares an XChaCha20-Poly1305 AEAD.
func NewSealer(password string) (*Sealer, error) {
	if password == "" {
		return nil, errors.New("token: sealer requires a non-empty password")
	}
	reader := hkdf.New(sha256.New, []byte(password), nil, hkdfInfo)
	key := make([]byte, keySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("token: deriving key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("token: initializing AEAD: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce ‖ ciphertext ‖ tag. Every
// call draws a fresh random 24-byte nonce; the nonce travels with the
// ciphertext and never repeats for a given key in practice.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	out := make([]byte, chacha20poly1305.NonceSizeX,
		chacha20poly1305.NonceSizeX+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out[:chacha20poly1305.NonceSizeX]); err != nil {
		return nil, fmt.Errorf("token: generating nonce: %w", err)
	}
	return s.aead.Seal(out, out[:chacha20poly1305.NonceSizeX], plaintext, additionalData), nil
}

// Open decrypts a blob produced by Seal. Tag verification is constant
// time; any failure surfaces as ErrAuthenticationFailed.
func (s *Sealer) Open(blob, additionalData []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX+s.aead.Overhead() {
		return nil, ErrAuthenticationFailed
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	plaintext, err := s.aead.Open(nil, nonce, blob[chacha20poly1305.NonceSizeX:], additionalData)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}
