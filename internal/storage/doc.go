// Package storage persists metadata bundle snapshots.
//
// A snapshot is a single file holding every entry of one bundle. Two
// formats are available behind the Snapshotter interface:
//
//   - JSONStore: a JSON document, written to a temp file and renamed into
//     place so readers never observe a torn file
//   - SQLiteStore: a single SQLite database file with a versioned schema
//
// # Records
//
// Stores deal in Records, the flattened form of a bundle entry:
//
//	storage.Record{
//	    Key:        "bach_bwv66_6_mxl",
//	    SourcePath: "bach/bwv66.6.mxl",
//	    Payload:    json.RawMessage(`{"composer":"J.S. Bach"}`),
//	}
//
// A nil Payload marks a stub entry. Payloads are produced and consumed by a
// PayloadCodec; MetadataCodec handles *types.Metadata.
//
// # Basic Usage
//
//	store := storage.NewJSONStore()
//	if err := store.Save(ctx, "/var/cache/scorecache/core.json", records); err != nil {
//	    return err
//	}
//
//	records, err := store.Load(ctx, "/var/cache/scorecache/core.json")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // cache not built yet
//	}
//
// # SQLite Drivers
//
// The SQLite store uses modernc.org/sqlite by default (no C compiler
// needed). Build with the sqlite_cgo tag to use github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// # Schema Migrations
//
// SQLite snapshots carry a schema_version table. Migrations are applied in
// semantic-version order when a snapshot is opened, so older snapshot files
// are upgraded in place.
package storage
