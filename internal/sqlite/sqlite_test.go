package sqlite

import (
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("Info.DriverName = %q, want %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("Info.IsCGO = %v, want %v", info.IsCGO, IsCGO())
	}
	switch info.DriverType {
	case "purego", "cgo":
	default:
		t.Errorf("DriverType = %q, want purego or cgo", info.DriverType)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?)`, "name", "scriptorium"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT v FROM kv WHERE k = ?`, "name").Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "scriptorium" {
		t.Errorf("v = %q, want scriptorium", v)
	}
}
