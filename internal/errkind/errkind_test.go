package errkind

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arosenfeld2003/lockstep/internal/retry"
	"github.com/arosenfeld2003/lockstep/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unknown},
		{"timeout", &retry.TimeoutError{Message: "Creating event timed out", After: time.Second}, Timeout},
		{"wrapped timeout", fmt.Errorf("insert event: %w", &retry.TimeoutError{Message: "x"}), Timeout},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"invalid", Invalid("Pick an event type"), Validation},
		{"wrapped invalid", fmt.Errorf("step: %w", ErrInvalid), Validation},
		{"undefined table", &pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "blocks" does not exist`}, NotFound},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, Validation},
		{"schema cache text", errors.New("Could not find the table 'public.guests' in the schema cache"), NotFound},
		{"no rows", sql.ErrNoRows, NotFound},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), Network},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("unreachable")}, Network},
		{"fetch text", errors.New("TypeError: Failed to fetch"), Network},
		{"unauthenticated", fmt.Errorf("verify: %w", session.ErrUnauthenticated), Unauthenticated},
		{"other", errors.New("something odd"), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	want := map[Kind]bool{Timeout: true, Network: true, NotFound: false, Validation: false, Unauthenticated: false, Unknown: false}
	for k, w := range want {
		if got := k.Retryable(); got != w {
			t.Errorf("%s.Retryable() = %v, want %v", k, got, w)
		}
	}
}

func TestMessage(t *testing.T) {
	if got := Message(nil); got != "" {
		t.Errorf("Message(nil) = %q", got)
	}
	if got := Message(errors.New("verbatim please")); got != "verbatim please" {
		t.Errorf("unknown message = %q", got)
	}
	got := Message(&retry.TimeoutError{Message: "Creating event timed out"})
	if got != "Creating event timed out. Check your connection and try again." {
		t.Errorf("timeout message = %q", got)
	}
	if got := Message(fmt.Errorf("%w: token is expired", session.ErrUnauthenticated)); got != "You're not signed in." {
		t.Errorf("unauthenticated message = %q", got)
	}
	if got := Message(Invalid("Enter a host name")); got != "Enter a host name" {
		t.Errorf("validation message = %q", got)
	}
}
