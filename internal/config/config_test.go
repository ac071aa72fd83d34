package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"native_find/internal/nativesearch"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvDebug, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, nativesearch.DefaultFilters(), cfg.Filters())
	assert.Equal(t, time.Duration(0), cfg.Timeout())
	assert.Equal(t, 160, cfg.Preview.MaxChars)
	assert.EqualValues(t, 2<<20, cfg.Preview.MaxTextBytes)
	assert.Equal(t, "local", cfg.Logging.Env)
	assert.Empty(t, cfg.Logging.Level)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv(EnvDebug, "")
	t.Setenv("NFIND_TEST_LEVEL", "warn")
	t.Setenv("NFIND_TEST_CACHE", "")
	path := writeConfig(t, `
search:
  extensions: ["PDF", ".Docx"]
  max_results: 25
  timeout_sec: 5
preview:
  cache_dir: ${NFIND_TEST_CACHE:-/tmp/nfind}
logging:
  env: prod
  level: ${NFIND_TEST_LEVEL}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{".pdf", ".docx"}, cfg.Search.Extensions)
	assert.Equal(t, 25, cfg.Filters().MaxResults)
	assert.EqualValues(t, 10_000_000, cfg.Filters().MaxSizeBytes)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "/tmp/nfind", cfg.Preview.CacheDir)
	assert.Equal(t, "prod", cfg.Logging.Env)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	t.Setenv(EnvDebug, "")
	t.Setenv(EnvConfigPath, writeConfig(t, "search:\n  max_results: 7\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}

func TestLoad_DebugOverride(t *testing.T) {
	t.Setenv(EnvDebug, "1")
	cfg, err := Load(writeConfig(t, "logging:\n  level: error\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvDebug, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "search: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "search:\n  max_results: 500\n"))
	assert.ErrorContains(t, err, "search.max_results must be at most 100")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative timeout", func(c *Config) { c.Search.TimeoutSec = -1 }, "search.timeout_sec"},
		{"extension with quote", func(c *Config) { c.Search.Extensions = []string{".pd'f"} }, "search.extensions[0]"},
		{"empty extension", func(c *Config) { c.Search.Extensions = []string{".pdf", " "} }, "search.extensions[1]"},
		{"dev env", func(c *Config) { c.Logging.Env = "dev" }, ""},
		{"unknown env", func(c *Config) { c.Logging.Env = "staging" }, "logging.env must be one of local, dev, prod"},
		{"extension without dot", func(c *Config) { c.Search.Extensions = []string{"pdf"} }, "search.extensions[0]"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidate_LeavesConfigUntouched(t *testing.T) {
	cfg := Config{Search: SearchConfig{Extensions: []string{" PDF", "png"}}}
	cfg.ApplyDefaults()
	assert.Equal(t, []string{".pdf", ".png"}, cfg.Search.Extensions)

	before := append([]string(nil), cfg.Search.Extensions...)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, before, cfg.Search.Extensions)

	bad := Config{}
	bad.ApplyDefaults()
	bad.Search.Extensions = []string{"Docx"}
	require.Error(t, bad.Validate())
	assert.Equal(t, []string{"Docx"}, bad.Search.Extensions)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NFIND_TEST_SET", "value")
	t.Setenv("NFIND_TEST_EMPTY", "")

	got := expandEnvVars([]byte("a=${NFIND_TEST_SET} b=${NFIND_TEST_EMPTY:-fallback} c=${NFIND_TEST_EMPTY}"))
	assert.Equal(t, "a=value b=fallback c=", string(got))
}
