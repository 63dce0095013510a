package bundle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/logger"
	"github.com/dshills/scorecache/internal/storage"
	"github.com/dshills/scorecache/pkg/types"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

// countingDeriver builds Metadata from the file name and records every call.
// Paths containing "broken" fail; ".abc" sources yield two numbered tunes;
// paths containing "bare" yield a stub.
type countingDeriver struct {
	calls atomic.Int64
}

func (d *countingDeriver) Derive(ctx context.Context, path string, opts indexer.DeriveOptions) ([]indexer.Derived, error) {
	d.calls.Add(1)

	base := filepath.Base(path)
	switch {
	case strings.Contains(base, "broken"):
		return nil, errors.New("unreadable score")
	case strings.Contains(base, "bare"):
		return nil, nil
	case strings.HasSuffix(base, ".abc"):
		return []indexer.Derived{
			{Number: intPtr(1), Payload: &types.Metadata{Title: base + " 1", Composer: "Trad."}},
			{Number: intPtr(2), Payload: &types.Metadata{Title: base + " 2", Composer: "Trad."}},
		}, nil
	}
	return []indexer.Derived{{Payload: &types.Metadata{Title: base, Composer: composerFor(base)}}}, nil
}

func composerFor(base string) string {
	switch {
	case strings.HasPrefix(base, "bach"):
		return "J.S. Bach"
	case strings.HasPrefix(base, "beethoven"):
		return "Ludwig van Beethoven"
	default:
		return "Anonymous"
	}
}

func testConfig(t *testing.T, store storage.Snapshotter) Config {
	t.Helper()
	if store == nil {
		store = storage.NewJSONStore()
	}
	dir := t.TempDir()
	return Config{
		Locator: &Locator{
			CacheDir: filepath.Join(dir, "cache"),
			TempDir:  filepath.Join(dir, "tmp"),
			Ext:      store.Ext(),
		},
		Store:   store,
		Deriver: &countingDeriver{},
		Workers: 4,
		Logger:  logger.Discard(),
	}
}

// writeSources creates files under dir with an mtime an hour in the past
func writeSources(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	past := time.Now().Add(-time.Hour)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0644))
		require.NoError(t, os.Chtimes(p, past, past))
		paths = append(paths, p)
	}
	return paths
}

func metadataEntry(path, composer string) *Entry {
	return NewEntry(path, nil, &types.Metadata{Title: filepath.Base(path), Composer: composer})
}

func calls(b *Bundle) int64 {
	return b.cfg.Deriver.(*countingDeriver).calls.Load()
}
