// Package sqlite implements the records adapter over a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/confidant-ai/confidant/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    profile_id TEXT NOT NULL,
    kind       TEXT NOT NULL,
    body       BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (profile_id, kind)
);`

// Open opens (or creates) the SQLite database and ensures the schema.
// WAL keeps readers unblocked during the read-modify-write cycles the
// services perform.
func Open(path string) (*sql.DB, error) {
	if !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens path and returns a typed store over it.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return store.New(&records{db: db}), nil
}

// NewWithDB wires an existing connection (used by the factory and tests).
func NewWithDB(db *sql.DB) store.Store { return store.New(&records{db: db}) }

type records struct{ db *sql.DB }

func (r *records) Get(ctx context.Context, profileID, kind string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE profile_id = ? AND kind = ?`, profileID, kind).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (r *records) Put(ctx context.Context, profileID, kind string, body []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO records (profile_id, kind, body, updated_at) VALUES (?,?,?,?)
        ON CONFLICT (profile_id, kind) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		profileID, kind, body, time.Now().UTC())
	return err
}

func (r *records) List(ctx context.Context, kind string) ([][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT body FROM records WHERE kind = ?`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

func (r *records) HealthPing(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *records) Close() error { return r.db.Close() }
