package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1095, cfg.Analysis.WindowDays)
	assert.Equal(t, 1095*24*time.Hour, cfg.Analysis.Window())
	assert.Equal(t, DefaultListingURL, cfg.Scraper.URL)
	assert.True(t, cfg.Scraper.Headless)
	assert.True(t, cfg.Export.Enabled)
	assert.False(t, cfg.Schedule.Enabled)

	loc, err := cfg.Analysis.LoadLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  write_timeout: 2m
analysis:
  window_days: 30
  location: UTC
scraper:
  headless: false
`)
	t.Setenv("PRICEPULSE_CONFIG", path)
	t.Setenv("PRICEPULSE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PRICEPULSE_ANALYSIS_WINDOW_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	// file over defaults
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "UTC", cfg.Analysis.Location)
	assert.False(t, cfg.Scraper.Headless)
	// untouched defaults survive
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultItemName, cfg.Scraper.DefaultItemName)
	// env over file
	assert.Equal(t, 7, cfg.Analysis.WindowDays)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRICEPULSE_SCHEDULE_ENABLED=true\nPRICEPULSE_SCHEDULE_SPEC=@every 1h\n"), 0644))

	t.Setenv("PRICEPULSE_ENV_FILE", envFile)
	t.Setenv("PRICEPULSE_CONFIG", writeConfig(t, "{}"))
	// godotenv does not override variables that are already present
	t.Setenv("PRICEPULSE_SCHEDULE_SPEC", "@every 5m")
	t.Cleanup(func() { os.Unsetenv("PRICEPULSE_SCHEDULE_ENABLED") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, "@every 5m", cfg.Schedule.Spec)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "server:\n  prot: 1\n", "load config from file"},
		{"bad port", "server:\n  port: 70000\n", "invalid server port"},
		{"zero window", "analysis:\n  window_days: 0\n", "analysis window"},
		{"bad zone", "analysis:\n  location: Mars/Olympus\n", "analysis location"},
		{"relative url", "scraper:\n  url: /market/listings/730/x\n", "scraper url"},
		{"schedule without spec", "schedule:\n  enabled: true\n  spec: ''\n", "cron spec"},
		{"trace exporter", "telemetry:\n  trace_exporter: jaeger\n", "trace exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
		})
	}
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stdout"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}
