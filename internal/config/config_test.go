package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "https://a2z-backend.fly.dev/api/v1", cfg.BaseURL)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.MonitorInterval)
	assert.Equal(t, 5*time.Minute, cfg.WarnThreshold)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
}

func TestParseJSON_Overlays(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	path := filepath.Join(t.TempDir(), "conf.json")
	err := os.WriteFile(path, []byte(`{
		"base_url": "https://staging.example.com",
		"token_ttl": "1h",
		"monitor_interval": "30s"
	}`), 0o600)
	require.NoError(t, err)

	os.Args = []string{"storectl", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)

	assert.Equal(t, "https://staging.example.com", cfg.BaseURL)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval)
	// Untouched fields keep their defaults.
	assert.Equal(t, "en", cfg.Language)
}

func TestParseEnv_Overlays(t *testing.T) {
	t.Setenv("STORE_BASE_URL", "https://env.example.com")
	t.Setenv("STORE_TOKEN_TTL", "2h")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "en", cfg.Language)
}

func TestParseFlags_Overlays(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"storectl", "-a", "https://flag.example.com", "-i", "60"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "https://flag.example.com", cfg.BaseURL)
	assert.Equal(t, time.Minute, cfg.MonitorInterval)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string form", `"5m"`, 5 * time.Minute, false},
		{"nanoseconds", `1000000000`, time.Second, false},
		{"garbage string", `"xyz"`, 0, true},
		{"wrong type", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}
