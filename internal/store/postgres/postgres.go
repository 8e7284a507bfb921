// Package postgres implements the records adapter over PostgreSQL via the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/confidant-ai/confidant/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    profile_id TEXT NOT NULL,
    kind       TEXT NOT NULL,
    body       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (profile_id, kind)
);`

// Open connects with the pgx stdlib driver, verifies connectivity, and
// ensures the schema.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
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

// New connects to dsn and returns a typed store over it.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return store.New(&records{db: db}), nil
}

// NewWithDB wires an existing connection.
func NewWithDB(db *sql.DB) store.Store { return store.New(&records{db: db}) }

type records struct{ db *sql.DB }

func (r *records) Get(ctx context.Context, profileID, kind string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE profile_id = $1 AND kind = $2`, profileID, kind).Scan(&body)
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
        INSERT INTO records (profile_id, kind, body, updated_at) VALUES ($1,$2,$3,$4)
        ON CONFLICT (profile_id, kind) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		profileID, kind, body, time.Now().UTC())
	return err
}

func (r *records) List(ctx context.Context, kind string) ([][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT body FROM records WHERE kind = $1`, kind)
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
