package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// jsonSnapshotVersion is written into every JSON snapshot
const jsonSnapshotVersion = "1.0.0"

// jsonSnapshot is the on-disk layout of a JSON snapshot file
type jsonSnapshot struct {
	Version string   `json:"version"`
	Entries []Record `json:"entries"`
}

// JSONStore implements Snapshotter with one JSON document per snapshot
type JSONStore struct{}

// NewJSONStore creates a new JSON snapshot store
func NewJSONStore() *JSONStore {
	return &JSONStore{}
}

// Ext returns the JSON snapshot extension
func (s *JSONStore) Ext() string {
	return ".json"
}

// Save writes records to a temp file next to path and renames it into place
func (s *JSONStore) Save(ctx context.Context, path string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(jsonSnapshot{Version: jsonSnapshotVersion, Entries: records})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads all records from the JSON snapshot at path
func (s *JSONStore) Load(ctx context.Context, path string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap jsonSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return snap.Entries, nil
}

// Remove deletes the snapshot at path if present
func (s *JSONStore) Remove(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}
