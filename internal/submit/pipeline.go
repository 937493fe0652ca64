// Package submit turns a completed wizard state into backend rows.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/generator"
	"github.com/arosenfeld2003/lockstep/internal/retry"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

// Phase names one backend call of a submission.
type Phase string

const (
	PhaseSession     Phase = "session"
	PhaseEvent       Phase = "event"
	PhaseBlocks      Phase = "blocks"
	PhaseQuestions   Phase = "questions"
	PhaseCheckpoints Phase = "checkpoints"
	PhaseGuests      Phase = "guests"
)

// Step is the wizard step a failure is shown next to.
func (p Phase) Step() wizard.Step {
	switch p {
	case PhaseGuests:
		return wizard.StepGuests
	default:
		return wizard.StepConfirm
	}
}

// PhaseError reports which phase failed. Earlier phases are not undone.
type PhaseError struct {
	Phase   Phase
	EventID string // set once the event row exists
	Err     error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Options configures a Pipeline. Zero values take defaults.
type Options struct {
	Logger         zerolog.Logger
	Notifier       Notifier
	SessionTimeout time.Duration
	InsertTimeout  time.Duration
	EventRetry     retry.Config
}

// EventRetry is the retry policy for the event insert.
var EventRetry = retry.Config{
	MaxRetries: 2,
	BaseDelay:  retry.DefaultConfig.BaseDelay,
	MaxDelay:   retry.DefaultConfig.MaxDelay,
}

// Pipeline runs the submission phases in order.
type Pipeline struct {
	backend Backend
	opts    Options
}

// NewPipeline builds a Pipeline writing to backend.
func NewPipeline(backend Backend, opts Options) *Pipeline {
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = timeouts.SessionCheck
	}
	if opts.InsertTimeout <= 0 {
		opts.InsertTimeout = timeouts.Insert
	}
	if opts.EventRetry.BaseDelay <= 0 {
		opts.EventRetry = EventRetry
	}
	return &Pipeline{backend: backend, opts: opts}
}

// Result is what a successful submission created.
type Result struct {
	EventID     string
	OrganiserID string
	Plan        generator.Plan
	Guests      []GuestRow
}

// Run submits st. observe, when non-nil, receives each progress change.
// Any failure stops the run and is returned as a *PhaseError.
func (p *Pipeline) Run(ctx context.Context, st *wizard.State, observe func(Progress)) (Result, error) {
	track := newTracker(observe)
	log := p.opts.Logger.With().Str("draft_id", st.DraftID).Logger()

	fail := func(phase Phase, eventID string, err error) (Result, error) {
		track.set(ProgressError)
		log.Error().Err(err).Str("phase", string(phase)).Str("event_id", eventID).Msg("submission failed")
		return Result{}, &PhaseError{Phase: phase, EventID: eventID, Err: err}
	}

	plan, err := st.Plan()
	if err != nil {
		return fail(PhaseEvent, "", err)
	}
	guests := GuestRows(st.Guests)

	track.set(ProgressConnecting)
	organiserID, err := retry.WithTimeout(ctx, p.opts.SessionTimeout, "Checking your session timed out", p.backend.VerifySession)
	if err != nil {
		return fail(PhaseSession, "", err)
	}

	track.set(ProgressCreating)
	row := eventRow(st, organiserID)
	retryCfg := p.opts.EventRetry
	retryCfg.Notify = func(attempt int, err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying event insert")
	}
	eventID, err := retry.WithRetry(ctx, retryCfg, p.opts.InsertTimeout, "Creating the event timed out",
		func(ctx context.Context) (string, error) {
			return p.backend.InsertEvent(ctx, row)
		})
	if err != nil {
		return fail(PhaseEvent, "", err)
	}
	log = log.With().Str("event_id", eventID).Logger()
	log.Info().Msg("event created")

	track.set(ProgressAddingDetails)
	details := []struct {
		phase   Phase
		message string
		n       int
		insert  func(context.Context) error
	}{
		{PhaseBlocks, "Adding the schedule timed out", len(plan.Blocks), func(ctx context.Context) error {
			return p.backend.InsertBlocks(ctx, eventID, plan.Blocks)
		}},
		{PhaseQuestions, "Adding guest questions timed out", len(plan.Questions), func(ctx context.Context) error {
			return p.backend.InsertQuestions(ctx, eventID, plan.Questions)
		}},
		{PhaseCheckpoints, "Adding reminders timed out", len(plan.Checkpoints), func(ctx context.Context) error {
			return p.backend.InsertCheckpoints(ctx, eventID, plan.Checkpoints)
		}},
	}
	for _, d := range details {
		if d.n == 0 {
			continue
		}
		if err := p.insert(ctx, d.message, d.insert); err != nil {
			return fail(d.phase, eventID, err)
		}
		log.Debug().Str("phase", string(d.phase)).Int("rows", d.n).Msg("rows inserted")
	}

	track.set(ProgressFinalizing)
	if len(guests) > 0 {
		err := p.insert(ctx, "Adding guests timed out", func(ctx context.Context) error {
			return p.backend.InsertGuests(ctx, eventID, guests)
		})
		if err != nil {
			return fail(PhaseGuests, eventID, err)
		}
	}

	track.set(ProgressComplete)
	log.Info().Int("guests", len(guests)).Msg("submission complete")

	if p.opts.Notifier != nil {
		created := Created{
			EventID:     eventID,
			OrganiserID: organiserID,
			Title:       row.Title,
			StartDate:   row.StartDate,
			Guests:      len(guests),
			Checkpoints: len(plan.Checkpoints),
		}
		if err := p.opts.Notifier.NotifyCreated(ctx, created); err != nil {
			log.Warn().Err(err).Msg("announce created event")
		}
	}

	return Result{EventID: eventID, OrganiserID: organiserID, Plan: plan, Guests: guests}, nil
}

func (p *Pipeline) insert(ctx context.Context, message string, fn func(context.Context) error) error {
	_, err := retry.WithTimeout(ctx, p.opts.InsertTimeout, message, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func eventRow(st *wizard.State, organiserID string) EventRow {
	title := strings.TrimSpace(st.EventName)
	if title == "" {
		if t := st.Template(); t != nil {
			title = t.Label
		}
	}
	return EventRow{
		Title:         title,
		Description:   st.AIDescription,
		Location:      st.LocationText,
		StartDate:     st.DateRange.Start,
		EndDate:       st.DateRange.End,
		Status:        StatusActive,
		CoverImageURL: st.CoverImageURL,
		Settings: Settings{
			TemplateID: st.TemplateID,
			HostName:   st.HostName,
			Place:      st.Location,
			Model:      st.DescriptionModel,
		},
		OrganiserID: organiserID,
	}
}

// ErrSuperseded is returned to a submission replaced by a newer one.
var ErrSuperseded = errors.New("submission superseded")
