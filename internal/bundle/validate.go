package bundle

import (
	"os"
	"path/filepath"

	"github.com/dshills/scorecache/internal/keycodec"
)

// Validate removes entries whose local source no longer exists and returns
// how many were removed. Network sources are never checked. Each distinct
// source path is checked once.
func (b *Bundle) Validate() int {
	exists := make(map[string]bool)
	var invalid []string

	for key, e := range b.entries {
		src := e.sourcePath
		if keycodec.IsNetworkPath(src) {
			continue
		}
		ok, seen := exists[src]
		if !seen {
			_, err := os.Stat(b.resolveSource(src))
			ok = err == nil
			exists[src] = ok
		}
		if !ok {
			invalid = append(invalid, key)
		}
	}

	for _, key := range invalid {
		delete(b.entries, key)
	}

	if len(invalid) > 0 {
		b.cfg.Logger.Info("removed entries with missing sources",
			"bundle", b.name,
			"removed", len(invalid),
		)
	}
	b.cfg.Metrics.AddRemoved(len(invalid))
	return len(invalid)
}

// resolveSource maps a recorded source path to a filesystem path.
// Relative paths are corpus-relative.
func (b *Bundle) resolveSource(src string) string {
	if keycodec.IsNetworkPath(src) || filepath.IsAbs(src) {
		return src
	}
	if b.cfg.CorpusRoot != "" {
		return filepath.Join(b.cfg.CorpusRoot, filepath.FromSlash(src))
	}
	if abs, err := filepath.Abs(src); err == nil {
		return abs
	}
	return src
}
