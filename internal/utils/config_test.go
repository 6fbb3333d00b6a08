package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFrom_Valid(t *testing.T) {
	p := writeConfig(t, `server:
  host: "127.0.0.1"
  port: ":9000"
cors:
  allowed_origins: ["https://a.example", "https://b.example"]
logger:
  level: "debug"
pdf:
  chrome_pool_size: 0
  timeout_secs: 5
sheets:
  TUBE-96:
    page_width: 8.5
    page_height: 11
    label_width: 1
    label_height: 0.5
    rows: 12
    columns: 8
`)
	cfg := LoadFrom(p)
	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.PDF.TimeoutSecs)
	require.Contains(t, cfg.Sheets, "TUBE-96")
	assert.Equal(t, 8, cfg.Sheets["TUBE-96"].Columns)
	// Unset values keep their defaults.
	assert.Equal(t, 4*1024*1024, cfg.Server.BodyLimitBytes)
	assert.Equal(t, "./logs/labelmaker.log", cfg.Logger.File)
}

func TestLoadFrom_PanicsOnInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{name: "port without colon", yml: "server:\n  port: '5000'\n"},
		{name: "zero timeout", yml: "pdf:\n  timeout_secs: 0\n"},
		{name: "negative pool", yml: "pdf:\n  chrome_pool_size: -1\n"},
		{name: "unknown level", yml: "logger:\n  level: loud\n"},
		{name: "sheet without rows", yml: "sheets:\n  X:\n    page_width: 1\n    page_height: 1\n    label_width: 1\n    label_height: 1\n    columns: 1\n"},
		{name: "not yaml", yml: "server: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.yml)
			assert.Panics(t, func() { _ = LoadFrom(p) })
		})
	}
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("CHROME_BIN", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := LoadConfig()
	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, cfg, GetConfig())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	p := writeConfig(t, "server:\n  port: ':7000'\n")
	t.Setenv("CONFIG_PATH", p)
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://one.example, ,https://two.example")
	t.Setenv("CHROME_BIN", "/usr/bin/chromium")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg := LoadConfig()
	assert.Equal(t, ":8081", cfg.Server.Port)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/usr/bin/chromium", cfg.PDF.ChromePath)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoadConfig_PanicsOnMissingExplicitPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Panics(t, func() { _ = LoadConfig() })
}

func TestSplitOrigins(t *testing.T) {
	assert.Nil(t, SplitOrigins(" , "))
	assert.Equal(t, []string{"*"}, SplitOrigins("*"))
}
