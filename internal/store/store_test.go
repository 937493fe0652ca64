package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arosenfeld2003/lockstep/internal/generator"
	"github.com/arosenfeld2003/lockstep/internal/session"
	"github.com/arosenfeld2003/lockstep/internal/submit"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

const eventID = "7b0c9a52-3f0e-4a51-8d55-0d6e5d1b7c11"

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil, nil), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestVerifySession(t *testing.T) {
	v := session.NewVerifier("secret")
	tok, err := v.Issue("org-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	s := &Store{Sessions: v, Token: func() (string, error) { return tok, nil }}
	id, err := s.VerifySession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "org-1", id)

	s.Token = func() (string, error) { return "", nil }
	_, err = s.VerifySession(context.Background())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	s.Token = func() (string, error) { return "", errors.New("disk") }
	_, err = s.VerifySession(context.Background())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	_, err = (&Store{}).VerifySession(context.Background())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestInsertEvent(t *testing.T) {
	s, mock := newMock(t)
	start := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	mock.ExpectQuery(q(insertEvent)).
		WithArgs("Alex's Bucks Weekend", "desc", "Byron Bay", start, end, submit.StatusActive, nil,
			[]byte(`{"templateId":"bucks","hostName":"Alex"}`), "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eventID))

	id, err := s.InsertEvent(context.Background(), submit.EventRow{
		Title:       "Alex's Bucks Weekend",
		Description: "desc",
		Location:    "Byron Bay",
		StartDate:   start,
		EndDate:     end,
		Status:      submit.StatusActive,
		Settings:    submit.Settings{TemplateID: template.IDBucks, HostName: "Alex"},
		OrganiserID: "org-1",
	})
	require.NoError(t, err)
	assert.Equal(t, eventID, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBlocksRollsBack(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2026, 6, 12, 9, 0, 0, 0, time.UTC)
	rows := []generator.BlockRow{
		{Name: "Arrival", StartTime: at, EndTime: at.Add(2 * time.Hour), OrderIndex: 0},
		{Name: "Dinner", StartTime: at, EndTime: at.Add(3 * time.Hour), OrderIndex: 1, AttendanceRequired: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec(q(insertBlock)).
		WithArgs(eventID, "Arrival", rows[0].StartTime, rows[0].EndTime, 0, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertBlock)).
		WithArgs(eventID, "Dinner", rows[1].StartTime, rows[1].EndTime, 1, true).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.InsertBlocks(context.Background(), eventID, rows)
	assert.ErrorContains(t, err, `insert block "Dinner"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertQuestionsAndCheckpoints(t *testing.T) {
	s, mock := newMock(t)
	out := template.ResponseOut
	at := time.Date(2026, 5, 29, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(q(insertQuestion)).
		WithArgs(eventID, "single_select", "Drinks?", []byte(`["Beer","Wine"]`), true, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertQuestion)).
		WithArgs(eventID, "text", "Dietary needs?", nil, false, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(q(insertCheckpoint)).
		WithArgs(eventID, at, "reminder", "RSVP soon", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertCheckpoint)).
		WithArgs(eventID, at, "deadline", "Last call", "out").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.InsertQuestions(context.Background(), eventID, []generator.QuestionRow{
		{Type: template.QuestionSingleSelect, Prompt: "Drinks?", Options: []string{"Beer", "Wine"}, Required: true, OrderIndex: 0},
		{Type: template.QuestionText, Prompt: "Dietary needs?", OrderIndex: 1},
	}))
	require.NoError(t, s.InsertCheckpoints(context.Background(), eventID, []generator.CheckpointRow{
		{TriggerAt: at, Type: template.CheckpointReminder, Message: "RSVP soon"},
		{TriggerAt: at, Type: template.CheckpointDeadline, Message: "Last call", AutoResolveTo: &out},
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGuests(t *testing.T) {
	s, mock := newMock(t)
	rows := submit.GuestRows([]string{"Sam", "+61 400 000 000"})

	mock.ExpectBegin()
	mock.ExpectExec(q(insertGuest)).WithArgs(eventID, "Sam", nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertGuest)).WithArgs(eventID, submit.PhoneGuestName, "+61 400 000 000").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.InsertGuests(context.Background(), eventID, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryCache(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`SELECT ai_cache FROM events WHERE id = $1`)).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"ai_cache"}).AddRow(nil))
	mock.ExpectExec(q(`UPDATE events SET ai_cache = $2 WHERE id = $1`)).
		WithArgs(eventID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`SELECT ai_cache FROM events WHERE id = $1`)).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"ai_cache"}).
			AddRow([]byte(`{"status":{"summary":"ok","model":"m","generatedAt":"2026-03-01T12:00:00Z"}}`)))
	mock.ExpectExec(q(`UPDATE events SET ai_cache = $2 WHERE id = $1`)).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	b, err := s.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, s.Put(ctx, eventID, summary.Blob{summary.TypeStatus: {Summary: "ok", Model: "m", GeneratedAt: at}}))

	b, err = s.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, "ok", b[summary.TypeStatus].Summary)
	assert.True(t, b[summary.TypeStatus].GeneratedAt.Equal(at))

	err = s.Put(ctx, "missing", summary.Blob{})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueCheckpoints(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, 11)

	mock.ExpectQuery(q(dueCheckpoints)).WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "title", "start_date", "trigger_at", "type", "message", "auto_resolve_to"}).
			AddRow("c1", eventID, "Alex's Bucks Weekend", start, now.Add(-time.Hour), "reminder", "RSVP soon", nil).
			AddRow("c2", eventID, "Alex's Bucks Weekend", start, now.Add(-time.Minute), "deadline", "Last call", "out"))

	due, err := s.DueCheckpoints(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, template.CheckpointReminder, due[0].Type)
	assert.Nil(t, due[0].AutoResolveTo)
	assert.True(t, due[0].EventStart.Equal(start))
	require.NotNil(t, due[1].AutoResolveTo)
	assert.Equal(t, template.ResponseOut, *due[1].AutoResolveTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFiredAndAutoResolve(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	mock.ExpectExec(q(`UPDATE checkpoints SET fired_at = $2 WHERE id = $1 AND fired_at IS NULL`)).
		WithArgs("c1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE checkpoints SET fired_at = $2 WHERE id = $1 AND fired_at IS NULL`)).
		WithArgs("c1", at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(pendingGuests)).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(q(autoResolve)).WithArgs(eventID, "out").
		WillReturnResult(sqlmock.NewResult(0, 7))

	ok, err := s.MarkFired(ctx, "c1", at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkFired(ctx, "c1", at)
	require.NoError(t, err)
	assert.False(t, ok, "second claim should lose")

	n, err := s.PendingGuests(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	resolved, err := s.AutoResolve(ctx, eventID, template.ResponseOut)
	require.NoError(t, err)
	assert.EqualValues(t, 7, resolved)

	_, err = s.AutoResolve(ctx, eventID, template.Response("nope"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
