// Package sqlite opens the SQLite files behind the annotation store.
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with -tags cgo_sqlite (and CGO_ENABLED=1) switches to mattn/go-sqlite3.
// The two drivers spell connection options differently, so every
// connection is opened through this package: foreign keys are enforced
// and a locked database is retried for BusyTimeout milliseconds.
package sqlite

import (
	"database/sql"
	"fmt"
)

// BusyTimeout is how long, in milliseconds, a connection waits on a lock.
const BusyTimeout = 5000

// DriverName returns the SQL driver name to use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// Open opens or creates the database file at path.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, false))
}

// OpenReadOnly opens an existing database file. Writes through the
// returned handle fail.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, true))
}

// Info describes the driver compiled into the binary.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	CGO        bool   `json:"cgo"`
	Package    string `json:"package"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s, %s", i.Package, i.DriverType)
}

// GetInfo returns information about the driver in use.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		CGO:        driverType == "cgo",
		Package:    driverPackage,
	}
}
