package indexer

import "sync/atomic"

// RebuildLock refuses a second rebuild of the same bundles while one runs.
// It never blocks: callers that lose the race report "busy" instead of
// queueing behind a long derivation pass.
type RebuildLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *RebuildLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the holder may call it.
func (l *RebuildLock) Release() {
	l.held.Store(false)
}

// Held reports whether a rebuild is running
func (l *RebuildLock) Held() bool {
	return l.held.Load()
}
