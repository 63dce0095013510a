package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/metrics"
	"github.com/dshills/scorecache/internal/storage"
	"github.com/dshills/scorecache/pkg/types"
)

// ErrUnknownKey is returned when a key is not in the bundle
var ErrUnknownKey = errors.New("unknown entry key")

// DefaultPersistEvery is how many completed rebuild jobs pass between
// intermediate snapshot writes
const DefaultPersistEvery = 50

// Config is the environment shared by a bundle and every bundle derived
// from it through search or set algebra
type Config struct {
	Locator      *Locator
	Store        storage.Snapshotter
	Codec        storage.PayloadCodec
	Deriver      indexer.Deriver
	Parser       types.Parser
	CorpusRoot   string // Base for corpus-relative source paths
	Workers      int    // Pool size for parallel rebuilds
	PersistEvery int
	Logger       *slog.Logger
	Metrics      *metrics.Metrics // Optional
	Progress     indexer.ProgressFunc
}

// withDefaults returns a copy of c with unset fields filled in
func (c Config) withDefaults() *Config {
	if c.Store == nil {
		c.Store = storage.NewJSONStore()
	}
	if c.Codec == nil {
		c.Codec = storage.MetadataCodec{}
	}
	if c.Locator == nil {
		c.Locator = DefaultLocator(c.Store.Ext())
	}
	if c.CorpusRoot != "" {
		if abs, err := filepath.Abs(c.CorpusRoot); err == nil {
			c.CorpusRoot = abs
		}
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PersistEvery <= 0 {
		c.PersistEvery = DefaultPersistEvery
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "bundle")
	}
	return &c
}

// Bundle is a keyed collection of entries. Every key equals the key derived
// from its entry.
type Bundle struct {
	name    string
	entries map[string]*Entry
	cfg     *Config
	report  Report
}

// New creates an empty bundle. An empty name makes an anonymous bundle that
// has no snapshot location.
func New(name string, cfg Config) *Bundle {
	return &Bundle{
		name:    name,
		entries: make(map[string]*Entry),
		cfg:     cfg.withDefaults(),
	}
}

// derive returns an empty anonymous bundle sharing b's environment
func (b *Bundle) derive() *Bundle {
	return &Bundle{
		entries: make(map[string]*Entry),
		cfg:     b.cfg,
	}
}

// Name returns the namespace, "" for anonymous bundles
func (b *Bundle) Name() string {
	return b.name
}

// FilePath returns the snapshot location, "" for anonymous bundles
func (b *Bundle) FilePath() string {
	return b.cfg.Locator.Path(b.name)
}

// Len returns the number of entries
func (b *Bundle) Len() int {
	return len(b.entries)
}

// Add stores e under its derived key, replacing any previous entry
func (b *Bundle) Add(e *Entry) {
	b.entries[e.Key()] = e
}

// Remove drops the entry stored under key
func (b *Bundle) Remove(key string) bool {
	if _, ok := b.entries[key]; !ok {
		return false
	}
	delete(b.entries, key)
	return true
}

// Get returns the entry stored under key
func (b *Bundle) Get(key string) (*Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Contains reports whether key is present
func (b *Bundle) Contains(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Keys returns all keys in sorted order
func (b *Bundle) Keys() []string {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns all entries ordered by key
func (b *Bundle) Entries() []*Entry {
	keys := b.Keys()
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		out[i] = b.entries[k]
	}
	return out
}

// At returns the i-th entry in key order
func (b *Bundle) At(i int) (*Entry, bool) {
	if i < 0 || i >= len(b.entries) {
		return nil, false
	}
	return b.entries[b.Keys()[i]], true
}

// Clear removes every entry. The snapshot is left alone.
func (b *Bundle) Clear() {
	b.entries = make(map[string]*Entry)
}

// Equal reports whether other is a bundle holding equal entries under the
// same keys. Namespaces are ignored.
func (b *Bundle) Equal(other any) bool {
	o, ok := other.(*Bundle)
	if !ok || b == nil || o == nil {
		return ok && b == o
	}
	if len(b.entries) != len(o.entries) {
		return false
	}
	for k, e := range b.entries {
		oe, ok := o.entries[k]
		if !ok || !e.Equal(oe) {
			return false
		}
	}
	return true
}

// String formats the bundle as <Bundle 'name': {N entries}>
func (b *Bundle) String() string {
	noun := "entries"
	if len(b.entries) == 1 {
		noun = "entry"
	}
	name := "None"
	if b.name != "" {
		name = "'" + b.name + "'"
	}
	return fmt.Sprintf("<Bundle %s: {%d %s}>", name, len(b.entries), noun)
}

// Show writes the source of the entry stored under key using the
// configured parser
func (b *Bundle) Show(ctx context.Context, w io.Writer, key string) error {
	e, ok := b.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return e.Show(ctx, w, b.cfg.Parser)
}
