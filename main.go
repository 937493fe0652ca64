// Command lockstep-functions serves the HTTP functions used by the wizard
// and the organiser dashboard: event descriptions, RSVP summaries and
// cover photo search.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/api"
	"github.com/arosenfeld2003/lockstep/internal/app"
	"github.com/arosenfeld2003/lockstep/internal/config"
	"github.com/arosenfeld2003/lockstep/internal/describe"
	"github.com/arosenfeld2003/lockstep/internal/logger"
	"github.com/arosenfeld2003/lockstep/internal/photos"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/telemetry"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lockstep-functions: %v\n", err)
		os.Exit(1)
	}
}

// newServer wires the function services. A nil cache disables summary
// caching.
func newServer(cfg *config.Config, log zerolog.Logger, cache summary.Cache) *api.Server {
	router := app.LLM(cfg, log)
	s := &api.Server{
		Describe:       &describe.Service{LLM: router},
		Summary:        &summary.Service{LLM: router, Cache: cache, Log: log},
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.PexelsAPIKey != "" {
		s.Photos = &photos.Client{APIKey: cfg.PexelsAPIKey}
	}
	return s
}

func run(ctx context.Context, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Parse("lockstep-functions", args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Setup(logger.Config{Verbose: cfg.Verbose, Level: cfg.LogLevel, Component: "functions"})

	shutdownTracing, err := telemetry.Setup(ctx, "lockstep-functions", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var db *sql.DB
	if cfg.CacheBackend == config.CachePostgres {
		if err := cfg.Require("database-url"); err != nil {
			return err
		}
		if db, err = app.Database(ctx, cfg); err != nil {
			return err
		}
		defer db.Close()
	}
	cache, closeCache, err := app.SummaryCache(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newServer(cfg, log, cache).Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("cache", cfg.CacheBackend).
			Bool("pexels", cfg.PexelsAPIKey != "").
			Msg("functions service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	return srv.Shutdown(sctx)
}
