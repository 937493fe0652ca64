// Package store persists events and their rows in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arosenfeld2003/lockstep/internal/session"
)

// Store is the Postgres backend. It satisfies submit.Backend and
// summary.Cache and serves the checkpoint queries used by the worker.
type Store struct {
	DB *sql.DB

	// Sessions and Token are used by VerifySession. Token returns the
	// caller's bearer token.
	Sessions *session.Verifier
	Token    func() (string, error)
}

// New wraps an open database.
func New(db *sql.DB, sessions *session.Verifier, token func() (string, error)) *Store {
	return &Store{DB: db, Sessions: sessions, Token: token}
}

// Open connects with the pgx driver and pings the server.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
