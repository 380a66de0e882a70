package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// JWTSecret returns the token signing secret, generating and storing a
// random one the first time it is asked for.
func JWTSecret(ctx context.Context, conn *sql.DB) (string, error) {
	return setting(ctx, conn, "jwt_secret", func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// setting reads key from the settings table. A missing key is filled with
// a value from generate; concurrent first calls agree on one value because
// the insert is ignored when the key already exists.
func setting(ctx context.Context, conn *sql.DB, key string, generate func() (string, error)) (string, error) {
	var value string
	err := conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == nil {
		return value, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}

	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating setting %s: %w", key, err)
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	if err := conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}
