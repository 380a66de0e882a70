package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The database holds the item audit
// journal and server settings; items themselves live in the collection file.
const schema = `
CREATE TABLE IF NOT EXISTS item_events (
    id      INTEGER PRIMARY KEY,
    item_id INTEGER NOT NULL,
    action  TEXT NOT NULL CHECK (action IN ('created', 'updated', 'photo_replaced', 'deleted')),
    name    TEXT NOT NULL,
    photo   TEXT,
    at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_item_events_item ON item_events(item_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
