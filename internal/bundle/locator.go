package bundle

import (
	"os"
	"path/filepath"
	"strings"
)

// Well-known namespaces
const (
	NamespaceCore    = "core"
	NamespaceVirtual = "virtual"
	NamespaceLocal   = "local"
)

// Locator maps a namespace to its snapshot file
type Locator struct {
	CacheDir string // Shared namespaces (core, virtual)
	TempDir  string // User-local namespaces
	Ext      string // Snapshot file extension, including the dot
}

// DefaultLocator places shared snapshots in the user cache directory and
// local ones in the system temp directory
func DefaultLocator(ext string) *Locator {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Locator{
		CacheDir: filepath.Join(cacheDir, "scorecache"),
		TempDir:  filepath.Join(os.TempDir(), "scorecache"),
		Ext:      ext,
	}
}

// LocalName returns the namespace for a user-local corpus
func LocalName(name string) string {
	switch {
	case name == "":
		return NamespaceLocal
	case name == NamespaceLocal, strings.HasPrefix(name, NamespaceLocal+"-"):
		return name
	default:
		return NamespaceLocal + "-" + name
	}
}

// CanonicalName maps namespace to the name its snapshot is stored under.
// Names other than core and virtual are local corpora.
func CanonicalName(namespace string) string {
	switch namespace {
	case "", NamespaceCore, NamespaceVirtual:
		return namespace
	default:
		return LocalName(namespace)
	}
}

// Path returns the snapshot file for namespace, or "" for anonymous bundles
func (l *Locator) Path(namespace string) string {
	switch namespace {
	case "":
		return ""
	case NamespaceCore, NamespaceVirtual:
		return filepath.Join(l.CacheDir, namespace+l.Ext)
	default:
		return filepath.Join(l.TempDir, LocalName(namespace)+l.Ext)
	}
}
