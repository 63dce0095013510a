// Package config loads scorecache configuration from an optional YAML file
// with SCORECACHE_* environment-variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/scorecache/internal/bundle"
	"github.com/dshills/scorecache/internal/metrics"
	"github.com/dshills/scorecache/internal/parser"
	"github.com/dshills/scorecache/internal/storage"
)

// Config is the top-level application configuration.
type Config struct {
	CacheDir       string        `yaml:"cache_dir"`
	TempDir        string        `yaml:"temp_dir"`
	CorpusRoot     string        `yaml:"corpus_root"`
	SnapshotFormat string        `yaml:"snapshot_format"`
	Workers        int           `yaml:"workers"`
	PersistEvery   int           `yaml:"persist_every"`
	Parallel       bool          `yaml:"parallel"`
	Log            LogConfig     `yaml:"log"`
	Metrics        MetricsConfig `yaml:"metrics"`
}

// LogConfig controls structured logging level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	locator := bundle.DefaultLocator("")
	return &Config{
		CacheDir:       locator.CacheDir,
		TempDir:        locator.TempDir,
		SnapshotFormat: storage.FormatJSON,
		PersistEvery:   bundle.DefaultPersistEvery,
		Parallel:       true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Validate checks for values no component can work with
func (c *Config) Validate() error {
	switch strings.ToLower(c.SnapshotFormat) {
	case storage.FormatJSON, storage.FormatSQLite:
	default:
		return fmt.Errorf("invalid snapshot_format %q: want json or sqlite", c.SnapshotFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must not be negative", c.Workers)
	}
	if c.PersistEvery < 0 {
		return fmt.Errorf("invalid persist_every %d: must not be negative", c.PersistEvery)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// BundleConfig builds the environment shared by every bundle, wiring the
// score parser as both deriver and parser
func (c *Config) BundleConfig(logger *slog.Logger, m *metrics.Metrics) (bundle.Config, error) {
	store, err := storage.New(c.SnapshotFormat)
	if err != nil {
		return bundle.Config{}, err
	}

	root := c.CorpusRoot
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	p := parser.New(root)

	return bundle.Config{
		Locator: &bundle.Locator{
			CacheDir: c.CacheDir,
			TempDir:  c.TempDir,
			Ext:      store.Ext(),
		},
		Store:        store,
		Deriver:      p,
		Parser:       p,
		CorpusRoot:   root,
		Workers:      c.Workers,
		PersistEvery: c.PersistEvery,
		Logger:       logger,
		Metrics:      m,
	}, nil
}

// applyEnvOverrides reads SCORECACHE_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCORECACHE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SCORECACHE_TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}
	if v := os.Getenv("SCORECACHE_CORPUS_ROOT"); v != "" {
		cfg.CorpusRoot = v
	}
	if v := os.Getenv("SCORECACHE_SNAPSHOT_FORMAT"); v != "" {
		cfg.SnapshotFormat = v
	}
	if v := os.Getenv("SCORECACHE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SCORECACHE_PERSIST_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PersistEvery = n
		}
	}
	if v := os.Getenv("SCORECACHE_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Parallel = b
		}
	}
	if v := os.Getenv("SCORECACHE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SCORECACHE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SCORECACHE_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("SCORECACHE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
