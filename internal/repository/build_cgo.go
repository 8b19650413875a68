//go:build sqlite_cgo

package repository

// cgo build using mattn/go-sqlite3.
//
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// SQLiteDriverName is the database/sql name of the SQLite driver.
	SQLiteDriverName = "sqlite3"

	BuildMode = "cgo"
)
