// SPDX-License-Identifier: MIT

package access

import "net"

// MatchBinding reports whether the observed client address satisfies a
// token's IP binding. The binding may be a literal IPv4/IPv6 address or
// a CIDR range; an unparseable observed address never matches.
func MatchBinding(binding, observed string) bool {
	ip := net.ParseIP(observed)
	if ip == nil {
		return false
	}
	if _, ipnet, err := net.ParseCIDR(binding); err == nil {
		return ipnet.Contains(ip)
	}
	bound := net.ParseIP(binding)
	return bound != nil && bound.Equal(ip)
}
