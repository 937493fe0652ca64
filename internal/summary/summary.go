// Package summary produces short AI summaries of an event's RSVP state and
// caches them per event.
package summary

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/llm"
)

// Type selects which summary is generated.
type Type string

const (
	TypeStatus      Type = "status"
	TypeBlockers    Type = "blockers"
	TypeSuggestions Type = "suggestions"
	TypeNudge       Type = "nudge"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeStatus, TypeBlockers, TypeSuggestions, TypeNudge:
		return true
	}
	return false
}

// TTL is how long a cached summary of this type stays fresh. Nudge text is
// a reusable message template so it lives longer.
func (t Type) TTL() time.Duration {
	if t == TypeNudge {
		return time.Hour
	}
	return 10 * time.Minute
}

// BlockSummary is the RSVP breakdown for one block.
type BlockSummary struct {
	Name    string `json:"name" validate:"required"`
	In      int    `json:"in" validate:"gte=0"`
	Maybe   int    `json:"maybe" validate:"gte=0"`
	Out     int    `json:"out" validate:"gte=0"`
	Pending int    `json:"pending" validate:"gte=0"`
}

// Request is the generate-summary input.
type Request struct {
	EventID        string         `json:"eventId,omitempty"`
	EventTitle     string         `json:"eventTitle" validate:"required"`
	TotalGuests    int            `json:"totalGuests" validate:"gte=0"`
	RespondedCount int            `json:"respondedCount" validate:"gte=0"`
	PendingCount   int            `json:"pendingCount" validate:"gte=0"`
	DaysUntilEvent int            `json:"daysUntilEvent"`
	BlockSummaries []BlockSummary `json:"blockSummaries,omitempty" validate:"omitempty,dive"`
	SummaryType    Type           `json:"summaryType" validate:"required,oneof=status blockers suggestions nudge"`
	Invalidate     bool           `json:"invalidate,omitempty"`
}

// Response is the generate-summary output.
type Response struct {
	Summary string `json:"summary"`
	Model   string `json:"model"`
	Cached  bool   `json:"cached,omitempty"`
}

// Generator is satisfied by *llm.Router.
type Generator interface {
	Generate(ctx context.Context, p llm.Prompt) llm.Result
}

// Service generates summaries, consulting Cache when the request names an
// event.
type Service struct {
	LLM   Generator
	Cache Cache
	Now   func() time.Time
	Log   zerolog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Generate returns a fresh cached summary when one exists and the caller
// did not ask to invalidate. Otherwise it asks the LLM and stores the
// result. Cache failures are logged and never fail the request.
func (s *Service) Generate(ctx context.Context, req Request) Response {
	useCache := req.EventID != "" && s.Cache != nil

	var blob Blob
	// A failed read leaves the other types unknown, so writing back would
	// drop them.
	writeBack := useCache
	if useCache {
		var err error
		blob, err = s.Cache.Get(ctx, req.EventID)
		if err != nil {
			s.Log.Warn().Err(err).Str("event_id", req.EventID).Msg("summary cache read failed")
			blob = nil
			writeBack = false
		}
		if !req.Invalidate {
			if e, ok := blob[req.SummaryType]; ok && e.Fresh(req.SummaryType, s.now()) {
				return Response{Summary: e.Summary, Model: e.Model, Cached: true}
			}
		}
	}

	var res llm.Result
	if s.LLM != nil {
		res = s.LLM.Generate(ctx, BuildPrompt(req))
	} else {
		res = llm.Result{Model: llm.FallbackModel, Error: llm.ErrBothFailed}
	}
	if res.Failed() {
		return Response{Summary: Fallback(req), Model: llm.FallbackModel}
	}

	if writeBack {
		if blob == nil {
			blob = Blob{}
		}
		blob[req.SummaryType] = Entry{Summary: res.Text, Model: res.Model, GeneratedAt: s.now().UTC()}
		if err := s.Cache.Put(ctx, req.EventID, blob); err != nil {
			s.Log.Warn().Err(err).Str("event_id", req.EventID).Msg("summary cache write failed")
		}
	}
	return Response{Summary: res.Text, Model: res.Model}
}
