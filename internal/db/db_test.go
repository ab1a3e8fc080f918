package db

import (
	"path/filepath"
	"testing"
)

func TestDSN(t *testing.T) {
	got := dsn("/data/app.db")
	want := "file:/data/app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite&_pragma=journal_mode(WAL)"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}

	if got := dsn(":memory:"); got != "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite" {
		t.Fatalf("unexpected memory dsn %q", got)
	}
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var on int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("foreign_keys = %d, want 1", on)
	}
}
