// Package history keeps an append-only journal of item mutations in SQLite.
// The journal is informational: the collection file stays authoritative.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/inventar/internal/model"
)

// RecordEvent appends an event to the journal.
func RecordEvent(ctx context.Context, db *sql.DB, e model.Event) (int64, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	var photo sql.NullString
	if e.Photo != "" {
		photo = sql.NullString{String: e.Photo, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_events (item_id, action, name, photo, at) VALUES (?, ?, ?, ?, ?)`,
		e.ItemID, e.Action, e.Name, photo, e.At,
	)
	if err != nil {
		return 0, fmt.Errorf("recording item event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting event id: %w", err)
	}
	return id, nil
}

// ListItemEvents returns the journal of one item, oldest first. Events of
// deleted items are kept.
func ListItemEvents(ctx context.Context, db *sql.DB, itemID int64) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, action, name, photo, at
		 FROM item_events WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecentEvents returns the latest events across all items, newest first.
func ListRecentEvents(ctx context.Context, db *sql.DB, limit int) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, action, name, photo, at
		 FROM item_events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var e model.Event
		var photo sql.NullString
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Action, &e.Name, &photo, &e.At); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Photo = photo.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Journal adapts the package functions to the store's recorder interface.
type Journal struct {
	DB *sql.DB
}

// Record implements store.Recorder.
func (j *Journal) Record(ctx context.Context, e model.Event) error {
	_, err := RecordEvent(ctx, j.DB, e)
	return err
}
