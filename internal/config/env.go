package config

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// envConfig mirrors Config for environment lookups. Empty values mean
// "not set" and leave the current layer untouched.
type envConfig struct {
	BaseURL         string        `env:"STORE_BASE_URL"`
	Language        string        `env:"STORE_LANG"`
	RequestTimeout  time.Duration `env:"STORE_REQUEST_TIMEOUT"`
	RetryBackoff    time.Duration `env:"STORE_RETRY_BACKOFF"`
	TokenTTL        time.Duration `env:"STORE_TOKEN_TTL"`
	MonitorInterval time.Duration `env:"STORE_MONITOR_INTERVAL"`
	WarnThreshold   time.Duration `env:"STORE_WARN_THRESHOLD"`
	CredentialsDSN  string        `env:"STORE_CREDENTIALS_DSN"`
}

// parseEnv overlays cfg with values from the process environment. A .env
// file in the working directory is loaded first if present.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	var ec envConfig
	if err := envconfig.Process(context.Background(), &ec); err != nil {
		panic(err)
	}

	if ec.BaseURL != "" {
		cfg.BaseURL = ec.BaseURL
	}
	if ec.Language != "" {
		cfg.Language = ec.Language
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.RetryBackoff != 0 {
		cfg.RetryBackoff = ec.RetryBackoff
	}
	if ec.TokenTTL != 0 {
		cfg.TokenTTL = ec.TokenTTL
	}
	if ec.MonitorInterval != 0 {
		cfg.MonitorInterval = ec.MonitorInterval
	}
	if ec.WarnThreshold != 0 {
		cfg.WarnThreshold = ec.WarnThreshold
	}
	if ec.CredentialsDSN != "" {
		cfg.CredentialsDSN = ec.CredentialsDSN
	}
}
