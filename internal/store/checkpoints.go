package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

const dueCheckpoints = `SELECT c.id, c.event_id, e.title, e.start_date, c.trigger_at, c.type, c.message, c.auto_resolve_to
	FROM checkpoints c
	JOIN events e ON e.id = c.event_id
	WHERE c.fired_at IS NULL AND c.trigger_at <= $1 AND e.status = 'active'
	ORDER BY c.trigger_at
	LIMIT $2`

// DueCheckpoints returns up to limit unfired checkpoints of active events
// whose trigger time is at or before now, oldest first.
func (s *Store) DueCheckpoints(ctx context.Context, now time.Time, limit int) ([]checkpoint.Due, error) {
	rows, err := s.DB.QueryContext(ctx, dueCheckpoints, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due checkpoints: %w", err)
	}
	defer rows.Close()

	var out []checkpoint.Due
	for rows.Next() {
		var (
			d       checkpoint.Due
			typ     string
			resolve sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &d.EventStart, &d.TriggerAt, &typ, &d.Message, &resolve); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		d.Type = template.CheckpointType(typ)
		if resolve.Valid {
			r := template.Response(resolve.String)
			d.AutoResolveTo = &r
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

// MarkFired stamps the checkpoint as fired. It reports false when another
// dispatcher got there first.
func (s *Store) MarkFired(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE checkpoints SET fired_at = $2 WHERE id = $1 AND fired_at IS NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark checkpoint fired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark checkpoint fired: %w", err)
	}
	return n == 1, nil
}

const pendingGuests = `SELECT count(*) FROM guests g
	WHERE g.event_id = $1 AND EXISTS (
		SELECT 1 FROM blocks b
		WHERE b.event_id = g.event_id AND NOT EXISTS (
			SELECT 1 FROM rsvps r WHERE r.guest_id = g.id AND r.block_id = b.id))`

// PendingGuests counts guests with at least one block they have not
// answered.
func (s *Store) PendingGuests(ctx context.Context, eventID string) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, pendingGuests, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending guests: %w", err)
	}
	return n, nil
}

const autoResolve = `INSERT INTO rsvps (guest_id, block_id, response, auto)
	SELECT g.id, b.id, $2, true
	FROM guests g JOIN blocks b ON b.event_id = g.event_id
	WHERE g.event_id = $1
	ON CONFLICT (guest_id, block_id) DO NOTHING`

// AutoResolve answers every unanswered block of the event with resp and
// returns how many RSVPs it wrote. Existing answers are left alone.
func (s *Store) AutoResolve(ctx context.Context, eventID string, resp template.Response) (int64, error) {
	if !resp.IsValid() {
		return 0, fmt.Errorf("auto resolve: invalid response %q", resp)
	}
	res, err := s.DB.ExecContext(ctx, autoResolve, eventID, string(resp))
	if err != nil {
		return 0, fmt.Errorf("auto resolve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("auto resolve: %w", err)
	}
	return n, nil
}
