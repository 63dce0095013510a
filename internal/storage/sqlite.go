package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SQLiteStore implements Snapshotter with one SQLite database file per snapshot
type SQLiteStore struct{}

// NewSQLiteStore creates a new SQLite snapshot store
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Ext returns the SQLite snapshot extension
func (s *SQLiteStore) Ext() string {
	return ".db"
}

// openDatabase opens a snapshot database with appropriate settings
func openDatabase(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Rollback journal keeps the snapshot a single file between writes
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return db, nil
}

// Save replaces every row of the snapshot at path inside one transaction
func (s *SQLiteStore) Save(ctx context.Context, path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	db, err := openDatabase(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (key, source_path, number, payload)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		var number sql.NullInt64
		if rec.Number != nil {
			number = sql.NullInt64{Int64: int64(*rec.Number), Valid: true}
		}
		var payload sql.NullString
		if rec.Payload != nil {
			payload = sql.NullString{String: string(rec.Payload), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, rec.Key, rec.SourcePath, number, payload); err != nil {
			return fmt.Errorf("failed to store entry %s: %w", rec.Key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_info (id, entry_count, written_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entry_count = excluded.entry_count,
			written_at = excluded.written_at
	`, len(records), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update snapshot info: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reads all records from the snapshot at path, ordered by key
func (s *SQLiteStore) Load(ctx context.Context, path string) ([]Record, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}

	db, err := openDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `
		SELECT key, source_path, number, payload
		FROM entries
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			number  sql.NullInt64
			payload sql.NullString
		)
		if err := rows.Scan(&rec.Key, &rec.SourcePath, &number, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if number.Valid {
			n := int(number.Int64)
			rec.Number = &n
		}
		if payload.Valid {
			rec.Payload = []byte(payload.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Remove deletes the snapshot file and any journal left beside it
func (s *SQLiteStore) Remove(ctx context.Context, path string) error {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove snapshot: %w", err)
		}
	}
	return nil
}
