//go:build !sqlite_cgo

package storage

// This file is compiled by default. It uses a pure Go SQLite
// implementation, so no C compiler is required.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
