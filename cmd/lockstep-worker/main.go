// Command lockstep-worker fires due checkpoints. It polls Postgres for
// checkpoints whose trigger time has passed, routes them over RabbitMQ to
// per-type workers, and tallies the outcomes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arosenfeld2003/lockstep/internal/app"
	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/config"
	"github.com/arosenfeld2003/lockstep/internal/dispatch"
	"github.com/arosenfeld2003/lockstep/internal/logger"
	"github.com/arosenfeld2003/lockstep/internal/store"
	"github.com/arosenfeld2003/lockstep/internal/summary"
	"github.com/arosenfeld2003/lockstep/internal/tally"
	"github.com/arosenfeld2003/lockstep/internal/telemetry"
	"github.com/arosenfeld2003/lockstep/internal/timeouts"
	"github.com/arosenfeld2003/lockstep/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lockstep-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Parse("lockstep-worker", args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Require("database-url"); err != nil {
		return err
	}

	log := logger.Setup(logger.Config{Verbose: cfg.Verbose, Level: cfg.LogLevel, Component: "worker"})
	log.Info().
		Int("workers_per_type", cfg.Workers).
		Dur("poll_interval", cfg.PollInterval).
		Msg("lockstep worker starting")

	shutdownTracing, err := telemetry.Setup(ctx, "lockstep-worker", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := app.Database(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.New(db, nil, nil)

	cache, closeCache, err := app.SummaryCache(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeCache()

	rmq, err := broker.NewRabbitMQ(ctx, broker.RabbitMQConfig{
		URL:            cfg.RabbitMQURL,
		ConnectionName: "lockstep-worker",
	})
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rmq.Close()

	totals := tally.New()
	err = serve(ctx, cfg, log, rmq, st, &summary.Service{
		LLM:   app.LLM(cfg, log),
		Cache: cache,
		Log:   log,
	}, totals)
	if rerr := writeReport(cfg.Report, totals, log); rerr != nil {
		log.Error().Err(rerr).Msg("write report")
	}
	return err
}

// checkpointStore is the slice of *store.Store the checkpoint loop needs.
type checkpointStore interface {
	dispatch.Source
	worker.RSVPs
}

// serve runs the dispatcher, the worker pool and tracker until ctx is
// cancelled. A clean shutdown returns a nil error.
func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, b broker.Broker, st checkpointStore, nudger worker.Nudger, tracker *tally.Tracker) error {

	d := dispatch.New(st, b, dispatch.Options{
		Interval: cfg.PollInterval,
		Log:      log.With().Str("role", "dispatcher").Logger(),
	})
	if err := d.Setup(ctx); err != nil {
		return err
	}

	pool := &worker.Pool{
		Broker:  b,
		RSVPs:   st,
		Nudger:  nudger,
		PerType: cfg.Workers,
		Log:     log,
	}
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tracker.Consume(gctx, b, checkpoint.QueueResults, log)
	})
	g.Go(func() error {
		return d.Run(gctx)
	})

	log.Info().Msg("all components started")
	err := g.Wait()
	log.Info().Msg("shutting down")

	if perr := pool.Shutdown(); perr != nil {
		log.Error().Err(perr).Msg("worker pool stopped with errors")
	}
	stats := d.Stats()
	log.Info().
		Int64("dispatched", stats.Dispatched).
		Int64("skipped", stats.Skipped).
		Int64("failed", stats.Failed).
		Int("outcomes", tracker.Count()).
		Msg("shutdown complete")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writeReport(path string, t *tally.Tracker, log zerolog.Logger) error {
	if path == "" || t == nil {
		return nil
	}
	data, err := t.Report().JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("report written")
	return nil
}
