package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/scorecache/internal/logger"
	"github.com/dshills/scorecache/internal/parser"
	"github.com/dshills/scorecache/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, storage.FormatJSON, cfg.SnapshotFormat)
	assert.Equal(t, 50, cfg.PersistEvery)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "scorecache", filepath.Base(cfg.CacheDir))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_dir: /var/cache/scores
corpus_root: /srv/corpus
snapshot_format: sqlite
workers: 3
parallel: false
log:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":9300"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/scores", cfg.CacheDir)
	assert.Equal(t, "/srv/corpus", cfg.CorpusRoot)
	assert.Equal(t, storage.FormatSQLite, cfg.SnapshotFormat)
	assert.Equal(t, 3, cfg.Workers)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9300", cfg.Metrics.Addr)
	assert.Equal(t, 50, cfg.PersistEvery, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCORECACHE_CORPUS_ROOT", "/env/corpus")
	t.Setenv("SCORECACHE_WORKERS", "7")
	t.Setenv("SCORECACHE_PARALLEL", "false")
	t.Setenv("SCORECACHE_LOG_LEVEL", "warn")
	t.Setenv("SCORECACHE_PERSIST_EVERY", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/env/corpus", cfg.CorpusRoot)
	assert.Equal(t, 7, cfg.Workers)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 50, cfg.PersistEvery)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv("SCORECACHE_SNAPSHOT_FORMAT", "parquet")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Workers = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestBundleConfig(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = t.TempDir()
	cfg.SnapshotFormat = storage.FormatSQLite
	cfg.CorpusRoot = "."

	bc, err := cfg.BundleConfig(logger.Discard(), nil)
	require.NoError(t, err)

	assert.Equal(t, ".db", bc.Locator.Ext)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "core.db"), bc.Locator.Path("core"))
	assert.True(t, filepath.IsAbs(bc.CorpusRoot))
	_, ok := bc.Deriver.(*parser.Parser)
	assert.True(t, ok)
	assert.NotNil(t, bc.Parser)
}
