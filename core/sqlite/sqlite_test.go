package sqlite

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func openTemp(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() || info.DriverType != DriverType() {
		t.Errorf("GetInfo() = %+v, driver %s/%s", info, DriverName(), DriverType())
	}
	if !strings.Contains(info.Package, "sqlite") {
		t.Errorf("Package = %q", info.Package)
	}
	if !strings.Contains(info.String(), info.DriverType) {
		t.Errorf("String() = %q", info.String())
	}

	switch info.DriverType {
	case "purego":
		if info.CGO || info.DriverName != "sqlite" {
			t.Errorf("purego info = %+v", info)
		}
	case "cgo":
		if !info.CGO || info.DriverName != "sqlite3" {
			t.Errorf("cgo info = %+v", info)
		}
	default:
		t.Errorf("unknown driver type: %s", info.DriverType)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db, _ := openTemp(t)
	if _, err := db.Exec(`
		CREATE TABLE documents (name TEXT PRIMARY KEY);
		CREATE TABLE records (document TEXT NOT NULL REFERENCES documents(name))`); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO records (document) VALUES ('A1')`); err == nil {
		t.Error("insert referencing a missing document should fail")
	}
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	db, _ := openTemp(t)
	var timeout int
	if err := db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatal(err)
	}
	if timeout != BusyTimeout {
		t.Errorf("busy_timeout = %d, want %d", timeout, BusyTimeout)
	}
}

func TestOpenReadOnly(t *testing.T) {
	db, path := openTemp(t)
	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES (?)`, "readonly"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	rodb, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer rodb.Close()

	var value string
	if err := rodb.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("query: %v", err)
	}
	if value != "readonly" {
		t.Errorf("value = %q, want readonly", value)
	}
	if _, err := rodb.Exec(`INSERT INTO test (value) VALUES (?)`, "nope"); err == nil {
		t.Error("insert on read-only database should fail")
	}
}
