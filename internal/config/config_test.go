package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investopal/internal/analysis"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "WEBHOOK_PUBLIC_URL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"NEWS_API_KEY", "PORT", "DB_PATH", "LOG_LEVEL", "CONFIG_PATH", "CACHE_TTL",
		"CURRENCY_SYMBOL", "ROLLING_WINDOW",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "investopal.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9095", cfg.Port)
	assert.Equal(t, 252, cfg.Analysis.TradingDaysPerYear)
	assert.Equal(t, 30, cfg.Analysis.RollingWindow)
	assert.Equal(t, 12, cfg.Analysis.PeriodsPerYear)
	assert.Equal(t, 50, cfg.Analysis.MaxYears)
	assert.Equal(t, 50000.0, cfg.Defaults.InvestmentAmount)
	assert.Equal(t, 15, cfg.Defaults.Years)
	assert.Len(t, cfg.Profiles, 3)
	assert.False(t, cfg.TelegramEnabled())
	assert.Equal(t, 6*time.Hour, cfg.GetCacheTTL())
	assert.Equal(t, analysis.DefaultParams(), cfg.Params())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port = "8080"
log_level = "debug"

[analysis]
rolling_window = 20

[advice]
profile_source = "computed"

[[profiles]]
name = "Balanced"
expected_return = 0.07
examples = ["VTI"]
`)
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_TTL", "15m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.Analysis.RollingWindow)
	assert.Equal(t, 252, cfg.Analysis.TradingDaysPerYear)
	assert.Equal(t, "computed", cfg.Advice.ProfileSource)
	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "Balanced", cfg.Profiles[0].Name)
	assert.Equal(t, 15*time.Minute, cfg.GetCacheTTL())
}

func TestLoadMissingFileIsSkipped(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Profiles, 3)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "malformed toml", body: "port = ["},
		{name: "rolling window below two", body: "[analysis]\nrolling_window = 1"},
		{name: "inverted ceilings", body: "[analysis]\nconservative_ceiling = 0.5\nmoderate_ceiling = 0.4"},
		{name: "horizon cap too large", body: "[analysis]\nmax_years = 1000"},
		{name: "periods per year too large", body: "[analysis]\nperiods_per_year = 100000"},
		{name: "unknown profile source", body: "[advice]\nprofile_source = \"vibes\""},
		{name: "unknown profile name", body: "[[profiles]]\nname = \"Reckless\"\nexamples = [\"GME\"]"},
		{name: "token without webhook", env: map[string]string{"TELEGRAM_BOT_TOKEN": "abc"}},
		{name: "non numeric port", env: map[string]string{"PORT": "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var paths []string
			if tt.body != "" {
				paths = append(paths, writeFile(t, tt.body))
			}
			_, err := Load(paths...)
			assert.Error(t, err)
		})
	}
}

func TestGetCacheTTLFallback(t *testing.T) {
	cfg := NewDefaultConfig()
	for _, v := range []string{"soon", "0s", "0", "-5m"} {
		cfg.CacheTTL = v
		assert.Equal(t, 6*time.Hour, cfg.GetCacheTTL(), v)
	}
}
