//go:build !cgo_sqlite

package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// dsn uses modernc's _pragma parameters, applied to each new connection.
func dsn(path string, readOnly bool) string {
	s := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, BusyTimeout)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
