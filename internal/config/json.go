package config

import (
	"encoding/json"
	"os"

	"github.com/a2ztrade/storekit/internal/flagx"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be given as strings like "5m" or as integer nanoseconds.
type JSONConfig struct {
	BaseURL         string   `json:"base_url"`
	Language        string   `json:"language"`
	RequestTimeout  Duration `json:"request_timeout"`
	RetryBackoff    Duration `json:"retry_backoff"`
	TokenTTL        Duration `json:"token_ttl"`
	MonitorInterval Duration `json:"monitor_interval"`
	WarnThreshold   Duration `json:"warn_threshold"`
	CredentialsDSN  string   `json:"credentials_dsn"`
}

// parseJSON overlays cfg with values from the JSON file named by -c/-config.
// If no file is given, it is a no-op. Only fields actually present in the
// file override the current values.
func parseJSON(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.Language != "" {
		cfg.Language = jc.Language
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryBackoff.Duration != 0 {
		cfg.RetryBackoff = jc.RetryBackoff.Duration
	}
	if jc.TokenTTL.Duration != 0 {
		cfg.TokenTTL = jc.TokenTTL.Duration
	}
	if jc.MonitorInterval.Duration != 0 {
		cfg.MonitorInterval = jc.MonitorInterval.Duration
	}
	if jc.WarnThreshold.Duration != 0 {
		cfg.WarnThreshold = jc.WarnThreshold.Duration
	}
	if jc.CredentialsDSN != "" {
		cfg.CredentialsDSN = jc.CredentialsDSN
	}
}
