// Package corpus enumerates the score files of a corpus directory.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Options controls discovery
type Options struct {
	Extensions    []string // Extensions to include, with the dot; empty means all files
	IncludeHidden bool     // Descend into dot directories and keep dot files
}

// Discover returns every matching file below root in lexical order
func Discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = true
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		hidden := strings.HasPrefix(d.Name(), ".") && path != root
		if d.IsDir() {
			// Skip hidden directories
			if hidden && !opts.IncludeHidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden && !opts.IncludeHidden {
			return nil
		}

		if len(exts) > 0 && !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	return files, nil
}
