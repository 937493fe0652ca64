// Package app builds the shared dependencies of the lockstep commands from
// a parsed config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/config"
	"github.com/arosenfeld2003/lockstep/internal/llm"
	"github.com/arosenfeld2003/lockstep/internal/store"
	"github.com/arosenfeld2003/lockstep/internal/summary"
)

// LLM returns a router with Gemini as primary and OpenAI as secondary.
// Providers without keys fail fast with llm.ErrNotConfigured.
func LLM(cfg *config.Config, log zerolog.Logger) *llm.Router {
	return &llm.Router{
		Primary:   llm.NewGemini(llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}),
		Secondary: llm.NewOpenAI(llm.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}),
		Log:       log,
	}
}

// Database opens Postgres and applies migrations.
func Database(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SummaryCache picks the cache named by cfg.CacheBackend. The returned
// close func releases any connection SummaryCache opened.
func SummaryCache(ctx context.Context, cfg *config.Config, db *sql.DB) (summary.Cache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return summary.NewMemoryCache(), noop, nil
	case config.CacheRedis:
		rdb, err := summary.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return summary.NewRedisCache(rdb), rdb.Close, nil
	case config.CachePostgres:
		if db == nil {
			return nil, noop, errors.New("postgres cache needs a database")
		}
		return store.New(db, nil, nil), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
