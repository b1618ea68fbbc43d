// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would be unsafe or
// unusable at runtime.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is required")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("config: public_url %q is not an absolute URL", c.PublicURL)
		}
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("config: rate_limit_rps %d is negative", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitWindow <= 0 {
		return errors.New("config: rate_limit_window must be positive when rate limiting is enabled")
	}
	return validateCIDRList("trusted_proxies", c.TrustedProxies)
}

// validateCIDRList validates a list of CIDR/IP entries and blocks
// forbidden networks, preventing trust-all proxy configurations.
func validateCIDRList(key string, entries []string) error {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		ip, ipnet, err := net.ParseCIDR(entry)
		if err == nil {
			if err := checkForbiddenNetwork(key, entry, ip, ipnet); err != nil {
				return err
			}
			continue
		}

		ip = net.ParseIP(entry)
		if ip == nil {
			return fmt.Errorf("config: invalid %s entry %q (must be CIDR or IP)", key, entry)
		}
		if ip.IsUnspecified() {
			return fmt.Errorf("config: %s contains unspecified address %q", key, entry)
		}
	}
	return nil
}

// checkForbiddenNetwork rejects "any" networks (0.0.0.0/0, ::/0) and
// unspecified single-address ranges.
func checkForbiddenNetwork(key, entry string, ip net.IP, ipnet *net.IPNet) error {
	ones, bits := ipnet.Mask.Size()
	if ones == 0 {
		return fmt.Errorf("config: %s contains forbidden CIDR %q (trust-all is not allowed)", key, entry)
	}
	if ip.IsUnspecified() && ones == bits {
		return fmt.Errorf("config: %s contains unspecified address %q", key, entry)
	}
	return nil
}

// ParseTrustedProxies converts the configured CIDR/IP list into
// net.IPNet values; single addresses become host-length networks.
func (c *Config) ParseTrustedProxies() []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return nets
}
