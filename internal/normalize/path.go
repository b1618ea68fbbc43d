// SPDX-License-Identifier: MIT

// Package normalize provides deterministic string normalization helpers.
package normalize

import "strings"

// Path collapses runs of consecutive slashes in a URL path into a single
// slash. The function is idempotent: Path(Path(s)) == Path(s).
func Path(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
