package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"native_find/internal/nativesearch"
)

// EnvConfigPath names the variable consulted when no --config flag is given.
const EnvConfigPath = "NFIND_CONFIG"

// EnvDebug forces debug logging when set to 1.
const EnvDebug = "NFIND_DEBUG"

// Config holds the nfind configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Preview PreviewConfig `yaml:"preview"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig is the filter policy compiled into every index query.
type SearchConfig struct {
	Extensions   []string `yaml:"extensions"`
	MaxSizeBytes int64    `yaml:"max_size_bytes"`
	MaxResults   int      `yaml:"max_results"`
	TimeoutSec   int      `yaml:"timeout_sec"` // 0 = wait for the index
}

// PreviewConfig holds PDF snippet settings.
type PreviewConfig struct {
	MaxChars     int    `yaml:"max_chars"`
	CacheDir     string `yaml:"cache_dir"` // default: <user cache dir>/nfind/preview
	MaxTextBytes int64  `yaml:"max_text_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // local, prod
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads the YAML file at path, or at $NFIND_CONFIG when path is empty.
// Without either it returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	if os.Getenv(EnvDebug) == "1" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	def := nativesearch.DefaultFilters()
	if len(c.Search.Extensions) == 0 {
		c.Search.Extensions = def.Extensions
	}
	exts := make([]string, len(c.Search.Extensions))
	for i, ext := range c.Search.Extensions {
		exts[i] = normalizeExtension(ext)
	}
	c.Search.Extensions = exts
	if c.Search.MaxSizeBytes <= 0 {
		c.Search.MaxSizeBytes = def.MaxSizeBytes
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = def.MaxResults
	}
	if c.Preview.MaxChars <= 0 {
		c.Preview.MaxChars = 160
	}
	if c.Preview.MaxTextBytes <= 0 {
		c.Preview.MaxTextBytes = 2 << 20
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// Validate checks the configuration for correctness. It does not modify c;
// ApplyDefaults normalizes extensions beforehand.
func (c *Config) Validate() error {
	if c.Search.MaxResults > nativesearch.MaxResultsCeiling {
		return fmt.Errorf("search.max_results must be at most %d, got %d", nativesearch.MaxResultsCeiling, c.Search.MaxResults)
	}
	if c.Search.TimeoutSec < 0 {
		return fmt.Errorf("search.timeout_sec must not be negative, got %d", c.Search.TimeoutSec)
	}
	for i, ext := range c.Search.Extensions {
		spec := nativesearch.QuerySpec{Filters: nativesearch.Filters{
			Extensions:   []string{ext},
			MaxSizeBytes: 1,
			MaxResults:   1,
		}}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("search.extensions[%d]: %q is not a plain file extension", i, ext)
		}
	}
	switch c.Logging.Env {
	case "local", "dev", "prod":
		// ok
	default:
		return fmt.Errorf("logging.env must be one of local, dev, prod, got %q", c.Logging.Env)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// Filters returns the search section as the filter policy of a Searcher.
func (c Config) Filters() nativesearch.Filters {
	return nativesearch.Filters{
		Extensions:   append([]string(nil), c.Search.Extensions...),
		MaxSizeBytes: c.Search.MaxSizeBytes,
		MaxResults:   c.Search.MaxResults,
	}
}

// Timeout bounds one search; zero means no bound.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Search.TimeoutSec) * time.Second
}

// normalizeExtension accepts "pdf" as well as ".PDF".
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
