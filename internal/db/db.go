// Package db opens the SQLite database used for settings and saved form state.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// Open opens a SQLite database and validates connectivity. ":memory:" opens a
// private in-memory database for tests.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// An in-memory database is per connection, so keep a single one.
	if dbPath == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	if dbPath == memoryPath {
		dbPath = "file::memory:"
	} else if !strings.HasPrefix(dbPath, "file:") {
		dbPath = "file:" + dbPath
	}
	return dbPath + "?" + q.Encode()
}
