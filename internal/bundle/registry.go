package bundle

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/scorecache/pkg/types"
)

// Registry owns one bundle per namespace. A namespace's snapshot is read
// the first time it is requested; later requests return the same bundle
// until it is rebuilt or forgotten.
type Registry struct {
	mu      sync.Mutex
	cfg     Config
	bundles map[string]*Bundle
}

// NewRegistry creates a registry whose bundles share cfg
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:     *cfg.withDefaults(),
		bundles: make(map[string]*Bundle),
	}
}

// Get returns the bundle for namespace, reading its snapshot on first use.
// Namespaces sharing a snapshot location share one bundle.
func (r *Registry) Get(ctx context.Context, namespace string) (*Bundle, error) {
	if namespace == "" {
		return nil, types.ErrAnonymousBundle
	}
	namespace = CanonicalName(namespace)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bundles[namespace]; ok {
		return b, nil
	}

	b := New(namespace, r.cfg)
	if err := b.Read(ctx, ""); err != nil {
		return nil, err
	}
	r.bundles[namespace] = b
	return b, nil
}

// Core returns the bundle of the bundled corpus
func (r *Registry) Core(ctx context.Context) (*Bundle, error) {
	return r.Get(ctx, NamespaceCore)
}

// Virtual returns the bundle of network-addressed scores
func (r *Registry) Virtual(ctx context.Context) (*Bundle, error) {
	return r.Get(ctx, NamespaceVirtual)
}

// Local returns the bundle of a user-local corpus. An empty name selects
// the default local corpus.
func (r *Registry) Local(ctx context.Context, name string) (*Bundle, error) {
	return r.Get(ctx, LocalName(name))
}

// Rebuild clears the namespace's bundle and snapshot and derives paths
// again. The rebuilt bundle replaces any cached instance.
func (r *Registry) Rebuild(ctx context.Context, namespace string, paths []string, opts AddOptions) (*Bundle, []string, error) {
	if namespace == "" {
		return nil, nil, types.ErrAnonymousBundle
	}
	namespace = CanonicalName(namespace)

	b := New(namespace, r.cfg)
	failed, err := b.Rebuild(ctx, paths, opts)
	if err != nil {
		return nil, failed, err
	}

	r.mu.Lock()
	r.bundles[namespace] = b
	r.mu.Unlock()
	return b, failed, nil
}

// Forget drops the cached bundle so the next Get reads the snapshot again
func (r *Registry) Forget(namespace string) {
	namespace = CanonicalName(namespace)
	r.mu.Lock()
	delete(r.bundles, namespace)
	r.mu.Unlock()
}

// Loaded returns the namespaces currently cached, sorted
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.bundles))
	for name := range r.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the environment shared by the registry's bundles
func (r *Registry) Config() Config {
	return r.cfg
}
