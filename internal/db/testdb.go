package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB returns a journal database in a per-test directory, opened the
// same way the server opens its history file. It is closed on cleanup.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	conn, err := OpenJournal(filepath.Join(t.TempDir(), "history.sqlite3"))
	if err != nil {
		t.Fatalf("opening test journal: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}
