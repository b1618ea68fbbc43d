// SPDX-License-Identifier: MIT

package token

import "errors"

var (
	// ErrMalformed marks tokens that cannot be decoded structurally:
	// bad base64, truncated input, or an unparseable payload.
	ErrMalformed = errors.New("token: malformed")

	// ErrAuthenticationFailed marks sealed tokens whose authentication
	// tag does not verify. A wrong password and a tampered token are
	// deliberately indistinguishable.
	ErrAuthenticationFailed = errors.New("token: authentication failed")
)
