// Package llm sends prompts to a primary text generation provider and falls
// back to a secondary one.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/retry"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
)

// FallbackModel is reported when no provider produced text.
const FallbackModel = "fallback"

// ErrBothFailed is the Result.Error when every provider failed.
const ErrBothFailed = "Both LLM providers failed"

// ErrNotConfigured is returned by providers without credentials.
var ErrNotConfigured = errors.New("provider not configured")

// Prompt is one generation request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Provider generates text for a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Result is the router's answer. Error is set only when both providers
// failed, in which case Text is empty and Model is FallbackModel.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the result came from no provider.
func (r Result) Failed() bool { return r.Error != "" }

// Router tries Primary, then Secondary.
type Router struct {
	Primary   Provider
	Secondary Provider
	Timeout   time.Duration
	Log       zerolog.Logger
}

// Generate returns the first provider's successful text.
func (r *Router) Generate(ctx context.Context, p Prompt) Result {
	for _, prov := range []Provider{r.Primary, r.Secondary} {
		if prov == nil {
			continue
		}
		text, err := r.try(ctx, prov, p)
		if err == nil {
			return Result{Text: text, Model: prov.Name()}
		}
		r.Log.Warn().Err(err).Str("provider", prov.Name()).Msg("llm provider failed")
	}
	return Result{Text: "", Model: FallbackModel, Error: ErrBothFailed}
}

func (r *Router) try(ctx context.Context, prov Provider, p Prompt) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = timeouts.Provider
	}
	text, err := retry.WithTimeout(ctx, timeout, prov.Name()+" timed out", func(ctx context.Context) (string, error) {
		return prov.Generate(ctx, p)
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
