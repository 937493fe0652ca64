// Package errkind classifies errors once at the UI boundary so the retry
// affordance and the displayed message agree.
package errkind

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arosenfeld2003/lockstep/internal/retry"
	"github.com/arosenfeld2003/lockstep/internal/session"
)

// Kind is the user-facing category of a failure.
type Kind string

const (
	Timeout         Kind = "timeout"
	NotFound        Kind = "not_found"
	Network         Kind = "network"
	Validation      Kind = "validation"
	Unauthenticated Kind = "unauthenticated"
	Unknown         Kind = "unknown"
)

// ErrInvalid marks errors caused by bad user input.
var ErrInvalid = errors.New("invalid input")

// Invalid returns a validation error with the given message.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct{ msg string }

func (e *invalidError) Error() string        { return e.msg }
func (e *invalidError) Is(target error) bool { return target == ErrInvalid }

// Retryable reports whether showing a "Retry" action makes sense.
func (k Kind) Retryable() bool {
	return k == Timeout || k == Network
}

var notFoundCodes = map[string]bool{
	pgerrcode.UndefinedTable:    true,
	pgerrcode.UndefinedColumn:   true,
	pgerrcode.UndefinedFunction: true,
	pgerrcode.InvalidSchemaName: true,
}

var (
	notFoundMarkers = []string{"schema cache", "does not exist", "pgrst205", "42p01"}
	networkMarkers  = []string{"network", "failed to fetch", "connection refused", "connection reset", "no such host", "broken pipe"}
)

// Classify maps err onto a Kind. A nil error is Unknown.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}
	if retry.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return Unauthenticated
	}
	if errors.Is(err, ErrInvalid) {
		return Validation
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case notFoundCodes[pgErr.Code]:
			return NotFound
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code), pgerrcode.IsDataException(pgErr.Code):
			return Validation
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout
		}
		return Network
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return Network
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, notFoundMarkers) {
		return NotFound
	}
	if containsAny(msg, networkMarkers) {
		return Network
	}
	return Unknown
}

// Message renders err as text for the person using the app.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case Timeout:
		var te *retry.TimeoutError
		if errors.As(err, &te) && te.Message != "" {
			return te.Message + ". Check your connection and try again."
		}
		return "The request timed out. Check your connection and try again."
	case NotFound:
		return "The server isn't ready yet (schema cache is out of date). Please try again in a minute."
	case Network:
		return "Network error. Check your internet connection and try again."
	case Unauthenticated:
		return "You're not signed in."
	default:
		return err.Error()
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
