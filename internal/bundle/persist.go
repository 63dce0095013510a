package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dshills/scorecache/internal/storage"
	"github.com/dshills/scorecache/pkg/types"
)

// Read replaces the entries with the snapshot at path, or at the
// namespace's location when path is empty. A missing snapshot leaves the
// bundle unchanged.
func (b *Bundle) Read(ctx context.Context, path string) error {
	if path == "" {
		path = b.FilePath()
	}
	if path == "" {
		return types.ErrAnonymousBundle
	}

	records, err := b.cfg.Store.Load(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		b.cfg.Logger.Debug("no snapshot to read", "bundle", b.name, "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	entries := make(map[string]*Entry, len(records))
	for _, rec := range records {
		var payload types.Searchable
		if rec.Payload != nil {
			payload, err = b.cfg.Codec.Decode(rec.Payload)
			if err != nil {
				return fmt.Errorf("failed to decode entry %s: %w", rec.Key, err)
			}
		}
		e := NewEntry(rec.SourcePath, rec.Number, payload)
		entries[e.Key()] = e
	}
	b.entries = entries

	b.cfg.Logger.Debug("snapshot read", "bundle", b.name, "path", path, "entries", len(entries))
	return nil
}

// Write saves every entry, sorted by key, to path or to the namespace's
// location when path is empty. Anonymous bundles without a path are not
// written.
func (b *Bundle) Write(ctx context.Context, path string) error {
	if path == "" {
		path = b.FilePath()
	}
	if path == "" {
		return nil
	}

	records := make([]storage.Record, 0, len(b.entries))
	for _, key := range b.Keys() {
		e := b.entries[key]
		rec := storage.Record{
			Key:        key,
			SourcePath: e.sourcePath,
			Number:     e.Number(),
		}
		if e.payload != nil {
			data, err := b.cfg.Codec.Encode(e.payload)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", key, err)
			}
			rec.Payload = data
		}
		records = append(records, rec)
	}

	err := b.cfg.Store.Save(ctx, path, records)
	b.cfg.Metrics.ObserveSnapshotWrite(err)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// Delete removes the namespace's snapshot file. Entries in memory are kept.
func (b *Bundle) Delete(ctx context.Context) error {
	path := b.FilePath()
	if path == "" {
		return nil
	}
	if err := b.cfg.Store.Remove(ctx, path); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", path, err)
	}
	return nil
}

// snapshotTime returns the modification time of the snapshot, or now when
// there is none
func (b *Bundle) snapshotTime() time.Time {
	path := b.FilePath()
	if path == "" {
		return time.Now()
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}
