package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arosenfeld2003/lockstep/internal/generator"
	"github.com/arosenfeld2003/lockstep/internal/session"
	"github.com/arosenfeld2003/lockstep/internal/submit"
)

// VerifySession checks the caller's token and returns the organiser id.
func (s *Store) VerifySession(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Sessions == nil || s.Token == nil {
		return "", fmt.Errorf("%w: no session configured", session.ErrUnauthenticated)
	}
	tok, err := s.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", session.ErrUnauthenticated, err)
	}
	claims, err := s.Sessions.Verify(tok)
	if err != nil {
		return "", err
	}
	return claims.OrganiserID, nil
}

const insertEvent = `INSERT INTO events
	(title, description, location, start_date, end_date, status, cover_image_url, settings, organiser_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

// InsertEvent creates the event row and returns its id.
func (s *Store) InsertEvent(ctx context.Context, row submit.EventRow) (string, error) {
	settings, err := json.Marshal(row.Settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}

	var id string
	err = s.DB.QueryRowContext(ctx, insertEvent,
		row.Title, row.Description, row.Location, row.StartDate, row.EndDate,
		row.Status, nullString(row.CoverImageURL), settings, row.OrganiserID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

const insertBlock = `INSERT INTO blocks
	(event_id, name, start_time, end_time, order_index, attendance_required)
	VALUES ($1, $2, $3, $4, $5, $6)`

// InsertBlocks writes all rows in one transaction.
func (s *Store) InsertBlocks(ctx context.Context, eventID string, rows []generator.BlockRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, insertBlock,
				eventID, r.Name, r.StartTime, r.EndTime, r.OrderIndex, r.AttendanceRequired); err != nil {
				return fmt.Errorf("insert block %q: %w", r.Name, err)
			}
		}
		return nil
	})
}

const insertQuestion = `INSERT INTO questions
	(event_id, type, prompt, options, required, order_index)
	VALUES ($1, $2, $3, $4, $5, $6)`

func (s *Store) InsertQuestions(ctx context.Context, eventID string, rows []generator.QuestionRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			var options any
			if len(r.Options) > 0 {
				b, err := json.Marshal(r.Options)
				if err != nil {
					return fmt.Errorf("encode options: %w", err)
				}
				options = b
			}
			if _, err := tx.ExecContext(ctx, insertQuestion,
				eventID, string(r.Type), r.Prompt, options, r.Required, r.OrderIndex); err != nil {
				return fmt.Errorf("insert question %d: %w", r.OrderIndex, err)
			}
		}
		return nil
	})
}

const insertCheckpoint = `INSERT INTO checkpoints
	(event_id, trigger_at, type, message, auto_resolve_to)
	VALUES ($1, $2, $3, $4, $5)`

func (s *Store) InsertCheckpoints(ctx context.Context, eventID string, rows []generator.CheckpointRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			var resolve any
			if r.AutoResolveTo != nil {
				resolve = string(*r.AutoResolveTo)
			}
			if _, err := tx.ExecContext(ctx, insertCheckpoint,
				eventID, r.TriggerAt, string(r.Type), r.Message, resolve); err != nil {
				return fmt.Errorf("insert checkpoint %q: %w", r.Message, err)
			}
		}
		return nil
	})
}

const insertGuest = `INSERT INTO guests (event_id, name, phone) VALUES ($1, $2, $3)`

func (s *Store) InsertGuests(ctx context.Context, eventID string, rows []submit.GuestRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			var phone any
			if r.Phone != nil {
				phone = *r.Phone
			}
			if _, err := tx.ExecContext(ctx, insertGuest, eventID, r.Name, phone); err != nil {
				return fmt.Errorf("insert guest %q: %w", r.Name, err)
			}
		}
		return nil
	})
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
