package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arosenfeld2003/lockstep/internal/summary"
)

// Get reads the event's ai_cache column. A NULL column is an empty cache;
// an unknown event is sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, eventID string) (summary.Blob, error) {
	var raw []byte
	err := s.DB.QueryRowContext(ctx, `SELECT ai_cache FROM events WHERE id = $1`, eventID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("read summary cache: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var b summary.Blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode summary cache: %w", err)
	}
	return b, nil
}

// Put overwrites the event's ai_cache column with b.
func (s *Store) Put(ctx context.Context, eventID string, b summary.Blob) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode summary cache: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE events SET ai_cache = $2 WHERE id = $1`, eventID, data)
	if err != nil {
		return fmt.Errorf("write summary cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("write summary cache: %w", sql.ErrNoRows)
	}
	return nil
}
