package bundle

import (
	"strings"

	"github.com/dshills/scorecache/pkg/types"
)

// Search returns a new anonymous bundle with the entries whose payload
// matches query, restricted to field when it is not empty. When
// fileExtensions is not empty an entry must also have a source path ending
// in one of them; an extension ending in "xml" also admits compressed
// (.mxl) and legacy (.mx) MusicXML sources. Stubs never match. An
// uncompilable pattern is an error even when no entry is searched.
func (b *Bundle) Search(query, field string, fileExtensions []string) (*Bundle, error) {
	if err := types.ValidateQuery(query); err != nil {
		b.cfg.Metrics.ObserveSearch(0, err)
		return nil, err
	}
	out := b.derive()

	for k, e := range b.entries {
		if e.IsStub() {
			continue
		}
		matched, _, err := e.payload.Search(query, field)
		if err != nil {
			b.cfg.Metrics.ObserveSearch(0, err)
			return nil, err
		}
		if !matched || !matchesExtension(e.sourcePath, fileExtensions) {
			continue
		}
		out.entries[k] = e
	}

	b.cfg.Metrics.ObserveSearch(len(out.entries), nil)
	return out, nil
}

func matchesExtension(sourcePath string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(sourcePath, ext) {
			return true
		}
		if strings.HasSuffix(ext, "xml") &&
			(strings.HasSuffix(sourcePath, "mxl") || strings.HasSuffix(sourcePath, "mx")) {
			return true
		}
	}
	return false
}
