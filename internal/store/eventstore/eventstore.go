// Package eventstore archives raw event JSON in SQLite so threads can be replayed.
package eventstore

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

var ErrNoCursor = errors.New("cursor not found")

// DB wraps a SQLite database holding raw events and ingest cursors.
type DB struct{ sql *sql.DB }

// Record is one archived event with its resolved thread position.
type Record struct {
	ID        string
	PubKey    string
	Kind      int
	CreatedAt int64
	RootID    string
	ParentID  string
	Raw       []byte
}

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS events (
	  id TEXT PRIMARY KEY,
	  pubkey TEXT NOT NULL,
	  kind INTEGER NOT NULL,
	  created_at INTEGER NOT NULL,
	  root_id TEXT NOT NULL DEFAULT '',
	  parent_id TEXT NOT NULL DEFAULT '',
	  raw TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_root ON events(root_id);
	CREATE INDEX IF NOT EXISTS idx_events_parent ON events(parent_id);
	CREATE TABLE IF NOT EXISTS cursors (
	  name TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// PutEvent stores rec unless an event with the same id is already archived.
// It reports whether a row was written.
func (d *DB) PutEvent(ctx context.Context, rec Record) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO events(id, pubkey, kind, created_at, root_id, parent_id, raw) VALUES(?,?,?,?,?,?,?)`,
		rec.ID, rec.PubKey, rec.Kind, rec.CreatedAt, rec.RootID, rec.ParentID, string(rec.Raw))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LoadThread returns the raw JSON of the root, every event that names it as
// root or parent, and everything hanging below those, oldest first.
func (d *DB) LoadThread(ctx context.Context, rootID string) ([][]byte, error) {
	rows, err := d.sql.QueryContext(ctx, `
	WITH RECURSIVE thread(id) AS (
	  SELECT id FROM events WHERE id = ?1 OR root_id = ?1 OR parent_id = ?1
	  UNION
	  SELECT e.id FROM events e JOIN thread t ON e.parent_id = t.id
	)
	SELECT raw FROM events WHERE id IN (SELECT id FROM thread) ORDER BY created_at, id`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, []byte(raw))
	}
	return out, rows.Err()
}

func (d *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// SaveCursor upserts a named ingest cursor.
func (d *DB) SaveCursor(ctx context.Context, name, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO cursors(name, value) VALUES(?, ?) ON CONFLICT(name) DO UPDATE SET value=excluded.value`, name, value)
	return err
}

func (d *DB) LoadCursor(ctx context.Context, name string) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE name=?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoCursor
	}
	return v, err
}
