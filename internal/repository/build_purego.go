//go:build !sqlite_cgo

package repository

// Default build: pure Go SQLite, no C toolchain required.
//
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriverName is the database/sql name of the SQLite driver.
	SQLiteDriverName = "sqlite"

	BuildMode = "purego"
)
