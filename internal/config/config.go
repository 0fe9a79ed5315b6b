// Package config holds runtime settings for the storefront client and the
// storectl CLI. Values are resolved in layers: defaults, then a JSON file,
// then environment variables, then command-line flags. Later layers win.
package config

import "time"

// Config holds runtime settings for the storefront client.
//
// Durations are time.Duration values (e.g. 5*time.Minute).
type Config struct {
	// BaseURL is the root of the storefront REST backend.
	BaseURL string

	// Language is the value for the default "lang" query parameter.
	Language string

	// RequestTimeout bounds checkout-critical calls (order creation).
	RequestTimeout time.Duration

	// RetryBackoff is the fixed delay before the single transient retry.
	RetryBackoff time.Duration

	// TokenTTL is the assumed access-token lifetime when the backend does
	// not say otherwise.
	TokenTTL time.Duration

	// MonitorInterval is how often the expiry monitor re-checks the token.
	MonitorInterval time.Duration

	// WarnThreshold is the remaining-lifetime level below which the token
	// counts as expiring soon.
	WarnThreshold time.Duration

	// CredentialsDSN locates the local sqlite credential cache.
	CredentialsDSN string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://a2z-backend.fly.dev/api/v1"
	c.Language = "en"
	c.RequestTimeout = 30 * time.Second
	c.RetryBackoff = time.Second
	c.TokenTTL = 24 * time.Hour
	c.MonitorInterval = 5 * time.Minute
	c.WarnThreshold = 5 * time.Minute
	c.CredentialsDSN = "storefront.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment, and command-line flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
