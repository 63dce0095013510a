package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/scorecache/pkg/types"
)

var (
	// ErrNotFound is returned when a snapshot file doesn't exist
	ErrNotFound = errors.New("snapshot not found")
	// ErrUnknownFormat is returned for an unsupported snapshot format name
	ErrUnknownFormat = errors.New("unknown snapshot format")
)

// Snapshot format names
const (
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// Snapshotter reads and writes whole-bundle snapshot files
type Snapshotter interface {
	// Save replaces the snapshot at path with records
	Save(ctx context.Context, path string, records []Record) error
	// Load returns all records at path, or ErrNotFound
	Load(ctx context.Context, path string) ([]Record, error)
	// Remove deletes the snapshot at path; a missing file is not an error
	Remove(ctx context.Context, path string) error
	// Ext is the file extension used for snapshot files, including the dot
	Ext() string
}

// Record is the persisted form of one bundle entry
type Record struct {
	Key        string          `json:"key"`
	SourcePath string          `json:"sourcePath"`
	Number     *int            `json:"number,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"` // nil for stub entries
}

// PayloadCodec converts entry payloads to and from their JSON form
type PayloadCodec interface {
	Encode(payload types.Searchable) (json.RawMessage, error)
	Decode(data json.RawMessage) (types.Searchable, error)
}

// MetadataCodec encodes *types.Metadata payloads
type MetadataCodec struct{}

// Encode marshals a *types.Metadata payload; nil encodes as nil
func (MetadataCodec) Encode(payload types.Searchable) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	md, ok := payload.(*types.Metadata)
	if !ok {
		return nil, fmt.Errorf("metadata codec cannot encode %T", payload)
	}
	if md == nil {
		return nil, nil
	}
	data, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}

// Decode unmarshals a *types.Metadata payload; empty or null data decodes as nil
func (MetadataCodec) Decode(data json.RawMessage) (types.Searchable, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	md := &types.Metadata{}
	if err := json.Unmarshal(data, md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}

// New returns the Snapshotter for a format name ("json" or "sqlite")
func New(format string) (Snapshotter, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return NewJSONStore(), nil
	case FormatSQLite:
		return NewSQLiteStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
