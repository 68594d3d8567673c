package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	var foreignKeys, busyTimeout int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if err := database.QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if foreignKeys != 1 || busyTimeout != 5000 {
		t.Fatalf("unexpected pragmas: foreign_keys=%d busy_timeout=%d", foreignKeys, busyTimeout)
	}

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("expected WAL journal mode, got %q", mode)
	}
}

func TestOpen_Memory(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("expected table on the same connection: %v", err)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("./dev.db")
	if !strings.HasPrefix(got, "file:./dev.db?") || !strings.Contains(got, "_pragma=foreign_keys%281%29") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if !strings.HasPrefix(dsn(":memory:"), "file::memory:?") {
		t.Fatalf("unexpected memory dsn %q", dsn(":memory:"))
	}
}
