//go:build cgo_sqlite

package sqlite

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)

func dsn(path string, readOnly bool) string {
	s := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d", path, BusyTimeout)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
