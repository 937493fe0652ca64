// Package sqlitestore keeps wizard snapshots in a local SQLite database so
// several drafts can be parked side by side.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

const schema = `
CREATE TABLE IF NOT EXISTS wizard_snapshots (
	slot     TEXT PRIMARY KEY,
	draft_id TEXT NOT NULL,
	step     TEXT NOT NULL,
	body     BLOB NOT NULL,
	saved_at INTEGER NOT NULL
);`

// Draft summarizes a saved snapshot.
type Draft struct {
	Slot    string
	DraftID string
	Step    wizard.Step
	SavedAt time.Time
}

// DB is an open snapshot database.
type DB struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (db *DB) Close() error {
	if db == nil || db.sqlDB == nil {
		return nil
	}
	return db.sqlDB.Close()
}

// Slot returns a wizard.Store bound to one named slot.
func (db *DB) Slot(name string) *Store {
	if name == "" {
		name = "default"
	}
	return &Store{db: db, slot: name}
}

// Drafts lists saved snapshots, newest first.
func (db *DB) Drafts(ctx context.Context) ([]Draft, error) {
	rows, err := db.sqlDB.QueryContext(ctx,
		`SELECT slot, draft_id, step, saved_at FROM wizard_snapshots ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		var d Draft
		var step string
		var millis int64
		if err := rows.Scan(&d.Slot, &d.DraftID, &step, &millis); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		d.Step = wizard.Step(step)
		d.SavedAt = time.UnixMilli(millis).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// Store is one slot of the database.
type Store struct {
	db   *DB
	slot string
}

func (s *Store) Save(ctx context.Context, st *wizard.State) error {
	now := time.Now()
	body, err := wizard.Encode(st, now)
	if err != nil {
		return err
	}
	_, err = s.db.sqlDB.ExecContext(ctx, `
INSERT INTO wizard_snapshots (slot, draft_id, step, body, saved_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
	draft_id = excluded.draft_id,
	step = excluded.step,
	body = excluded.body,
	saved_at = excluded.saved_at`,
		s.slot, st.DraftID, string(st.Step), body, now.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*wizard.State, error) {
	var body []byte
	err := s.db.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM wizard_snapshots WHERE slot = ?`, s.slot).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wizard.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return wizard.Decode(body)
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.sqlDB.ExecContext(ctx, `DELETE FROM wizard_snapshots WHERE slot = ?`, s.slot); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

var _ wizard.Store = (*Store)(nil)
