// SPDX-License-Identifier: MIT

// Package config loads and validates the daemon configuration from an
// optional YAML file and MEDIAGATE_* environment variables, environment
// taking precedence. The result is a plain immutable struct handed to
// the server at construction; nothing reads configuration ambiently.
package config

import "time"

// Config is the complete daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// APIPassword is the shared secret gating proxied requests and used
	// as the token encryption key. Empty selects open mode: every
	// request is authorized and tokens stay unsealed.
	APIPassword string `yaml:"api_password"`

	// PublicURL is the default base URL for generated links when a
	// generation request does not carry its own.
	PublicURL string `yaml:"public_url"`

	// TrustedProxies lists CIDRs whose forwarding headers are honored
	// when determining the client address.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// RateLimitRPS caps generation requests per client IP and window.
	// Zero disables rate limiting.
	RateLimitRPS int `yaml:"rate_limit_rps"`

	// RateLimitWindow is the window RateLimitRPS applies to.
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	// LogLevel sets the global zerolog level.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Listen:          ":8888",
		RateLimitRPS:    100,
		RateLimitWindow: time.Minute,
		LogLevel:        "info",
	}
}

// Load builds the effective configuration: defaults, overlaid by the
// YAML file at path (when non-empty), overlaid by environment variables,
// then validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Listen = ParseString("MEDIAGATE_LISTEN", cfg.Listen)
	cfg.APIPassword = ParseString("MEDIAGATE_API_PASSWORD", cfg.APIPassword)
	cfg.PublicURL = ParseString("MEDIAGATE_PUBLIC_URL", cfg.PublicURL)
	cfg.TrustedProxies = ParseStringSlice("MEDIAGATE_TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.RateLimitRPS = ParseInt("MEDIAGATE_RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitWindow = ParseDuration("MEDIAGATE_RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.LogLevel = ParseString("MEDIAGATE_LOG_LEVEL", cfg.LogLevel)
}
