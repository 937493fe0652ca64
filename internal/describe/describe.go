// Package describe writes the short event blurb shown on invitations.
package describe

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/llm"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

// DateRange is the event span as sent by clients.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Request is the generate-description input.
type Request struct {
	EventType template.ID `json:"eventType" validate:"required"`
	HostName  string      `json:"hostName" validate:"required,max=120"`
	Location  string      `json:"location" validate:"max=200"`
	DateRange *DateRange  `json:"dateRange"`
	Tone      string      `json:"tone,omitempty" validate:"omitempty,oneof=fun formal heartfelt cheeky relaxed"`
}

// Response is the generate-description output. Description is always set;
// Error is set when it is canned text.
type Response struct {
	Description string `json:"description"`
	Model       string `json:"model,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Generator is satisfied by *llm.Router.
type Generator interface {
	Generate(ctx context.Context, p llm.Prompt) llm.Result
}

// Service generates descriptions, falling back to canned sentences.
type Service struct {
	LLM Generator
	// Pick returns a number in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// Describe never fails: provider errors degrade to a canned sentence.
func (s *Service) Describe(ctx context.Context, req Request) Response {
	tpl, ok := template.Lookup(req.EventType)
	if !ok {
		tpl = template.MustLookup(template.IDCustom)
	}

	if s.LLM != nil {
		res := s.LLM.Generate(ctx, BuildPrompt(tpl, req))
		if !res.Failed() {
			return Response{Description: res.Text, Model: res.Model}
		}
		return Response{
			Error:       res.Error,
			Model:       llm.FallbackModel,
			Description: Fallback(tpl.ID, req.HostName, req.Location, s.pick),
		}
	}
	return Response{
		Error:       llm.ErrBothFailed,
		Model:       llm.FallbackModel,
		Description: Fallback(tpl.ID, req.HostName, req.Location, s.pick),
	}
}

func (s *Service) pick(n int) int {
	if s.Pick != nil {
		return s.Pick(n)
	}
	return rand.IntN(n)
}

// BuildPrompt asks for a two or three sentence invitation blurb.
func BuildPrompt(tpl *template.EventTemplate, req Request) llm.Prompt {
	tone := req.Tone
	if tone == "" {
		tone = "fun"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short description (2-3 sentences) for a %s", strings.ToLower(tpl.Label))
	if host := strings.TrimSpace(req.HostName); host != "" {
		fmt.Fprintf(&b, " for %s", host)
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		fmt.Fprintf(&b, "%s", LocationPhrase(loc))
	}
	if req.DateRange != nil && !req.DateRange.Start.IsZero() {
		fmt.Fprintf(&b, ", %s", formatRange(req.DateRange.Start, req.DateRange.End))
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Tone: %s. Speak to the guests directly. No hashtags, no emojis, no quotation marks.", tone)

	return llm.Prompt{
		System:      "You write warm, concise copy for group event invitations.",
		User:        b.String(),
		MaxTokens:   200,
		Temperature: 0.8,
	}
}

func formatRange(start, end time.Time) string {
	if end.IsZero() || sameDay(start, end) {
		return start.Format("Monday 2 January 2006")
	}
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return fmt.Sprintf("%d-%d %s", start.Day(), end.Day(), start.Format("January 2006"))
	}
	return fmt.Sprintf("%s to %s", start.Format("2 January"), end.Format("2 January 2006"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
