// Package keycodec derives canonical, filesystem-safe keys for metadata
// entries from their source paths.
//
// A key is the corpus-relative part of the path with every path separator
// and extension dot replaced by an underscore:
//
//	DeriveKey("/opt/scores/corpus/bach/bwv66.6.mxl", nil) // "bach_bwv66_6_mxl"
//	DeriveKey("bach/bwv1007/prelude", nil)                // "bach_bwv1007_prelude"
//
// An optional number is appended to tell apart documents sharing a source:
//
//	n := 3
//	DeriveKey("/scores/folk/reels.abc", &n) // "scores_folk_reels_abc_3"
//
// Paths without a corpus-root marker component are used as-is, so keys for
// ad hoc paths are longer but still unique.
package keycodec

import (
	"os"
	"strconv"
	"strings"
)

// DefaultMarker is the path component that introduces a corpus-relative path
const DefaultMarker = "corpus"

// Codec derives keys using a configurable set of corpus-root markers
type Codec struct {
	Markers []string
}

var defaultCodec = Codec{Markers: []string{DefaultMarker}}

// DeriveKey derives a key with the default corpus marker
func DeriveKey(path string, number *int) string {
	return defaultCodec.DeriveKey(path, number)
}

// DeriveKey returns the canonical key for path and optional number.
// It is pure and total: equal inputs always give equal keys.
func (c Codec) DeriveKey(path string, number *int) string {
	rel := c.corpusRelative(path)

	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, string(os.PathSeparator)) {
		rel = rel[1:]
	}

	var b strings.Builder
	b.Grow(len(rel) + 8)
	for _, r := range rel {
		switch {
		case r == '/', r == '.', r == os.PathSeparator:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	if number != nil {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(*number))
	}
	return b.String()
}

// corpusRelative returns the part of path after the last marker occurrence,
// or path unchanged when no marker is present. A marker only counts as a
// whole path component, so "corpus.xml" or "mycorpus" do not cut the path.
func (c Codec) corpusRelative(path string) string {
	cut := -1
	for _, marker := range c.Markers {
		if marker == "" {
			continue
		}
		if i := lastComponent(path, marker); i >= 0 && i+len(marker) > cut {
			cut = i + len(marker)
		}
	}
	if cut < 0 {
		return path
	}
	return path[cut:]
}

// lastComponent returns the index of the last occurrence of marker that is
// bounded by separators or the ends of path, or -1
func lastComponent(path, marker string) int {
	end := len(path)
	for end >= len(marker) {
		i := strings.LastIndex(path[:end], marker)
		if i < 0 {
			return -1
		}
		j := i + len(marker)
		if (i == 0 || isSeparator(path[i-1])) && (j == len(path) || isSeparator(path[j])) {
			return i
		}
		end = j - 1
	}
	return -1
}

func isSeparator(c byte) bool {
	return c == '/' || c == os.PathSeparator
}

// IsNetworkPath reports whether path addresses a network location.
// Network sources are never stat'ed or validated against the filesystem.
func IsNetworkPath(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
