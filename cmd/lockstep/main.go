// Command lockstep is the organiser's terminal app. With no subcommand it
// runs the create-event wizard; "login", "logout" and "drafts" manage the
// local session and saved drafts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/app"
	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/config"
	"github.com/arosenfeld2003/lockstep/internal/dispatch"
	"github.com/arosenfeld2003/lockstep/internal/functions"
	"github.com/arosenfeld2003/lockstep/internal/logger"
	"github.com/arosenfeld2003/lockstep/internal/session"
	"github.com/arosenfeld2003/lockstep/internal/store"
	"github.com/arosenfeld2003/lockstep/internal/submit"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
	"github.com/arosenfeld2003/lockstep/internal/wizard/sqlitestore"
)

// sessionTTL is how long a token issued by "lockstep login" lasts.
const sessionTTL = 30 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lockstep: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cmd := ""
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		return runWizard(ctx, args, stdout)
	case "login":
		return runLogin(args, stdout)
	case "logout":
		return runLogout(stdout)
	case "drafts":
		return runDrafts(ctx, args, stdout)
	default:
		return fmt.Errorf("unknown command %q (want login, logout or drafts)", cmd)
	}
}

func tokenPath() (string, error) {
	if p := os.Getenv("LOCKSTEP_SESSION_FILE"); p != "" {
		return p, nil
	}
	return session.TokenFile()
}

// runLogin stores a session token. With -token it saves the given token;
// otherwise it signs one with the session secret.
func runLogin(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lockstep login", flag.ContinueOnError)
	token := fs.String("token", "", "bearer token to store")
	email := fs.String("email", "", "organiser email for a locally signed token")
	organiser := fs.String("organiser", "", "organiser id (default: a new id)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := tokenPath()
	if err != nil {
		return err
	}
	if *token == "" {
		secret := os.Getenv("LOCKSTEP_SESSION_SECRET")
		if secret == "" {
			return errors.New("pass -token, or set LOCKSTEP_SESSION_SECRET to sign one")
		}
		id := *organiser
		if id == "" {
			id = uuid.NewString()
		}
		*token, err = session.NewVerifier(secret).Issue(id, *email, sessionTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
	}
	if err := session.WriteToken(path, *token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(stdout, "signed in; token saved to %s\n", path)
	return nil
}

func runLogout(stdout io.Writer) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Fprintln(stdout, "signed out")
	return nil
}

func runDrafts(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Parse("lockstep drafts", args)
	if err != nil {
		return err
	}
	if cfg.DraftsPath == "" {
		return errors.New("drafts needs a drafts database (-drafts or LOCKSTEP_DRAFTS)")
	}
	db, err := sqlitestore.Open(cfg.DraftsPath)
	if err != nil {
		return err
	}
	defer db.Close()

	drafts, err := db.Drafts(ctx)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintln(stdout, "no saved drafts")
		return nil
	}
	for _, d := range drafts {
		fmt.Fprintf(stdout, "%-12s %-10s %s  %s\n", d.Slot, d.Step, d.SavedAt.Local().Format(time.DateTime), d.DraftID)
	}
	return nil
}

// draftStore picks SQLite when a drafts database is configured and a JSON
// file otherwise.
func draftStore(cfg *config.Config) (wizard.Store, func() error, error) {
	if cfg.DraftsPath != "" {
		db, err := sqlitestore.Open(cfg.DraftsPath)
		if err != nil {
			return nil, nil, err
		}
		return db.Slot("default"), db.Close, nil
	}
	path, err := wizard.DefaultPath()
	if err != nil {
		return nil, nil, err
	}
	return &wizard.FileStore{Path: path}, func() error { return nil }, nil
}

func runWizard(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Parse("lockstep", args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Require("database-url", "functions-url"); err != nil {
		return err
	}

	log, closeLog, err := wizardLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	path, err := tokenPath()
	if err != nil {
		return err
	}
	token := func() (string, error) { return session.ReadToken(cfg.SessionToken, path) }

	drafts, closeDrafts, err := draftStore(cfg)
	if err != nil {
		return err
	}
	defer closeDrafts()

	db, err := app.Database(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	backend := store.New(db, session.NewVerifier(cfg.SessionSecret), token)

	opts := submit.Options{Logger: log}
	if n, closeBroker := announcer(ctx, cfg, log); n != nil {
		defer closeBroker()
		opts.Notifier = n
	}
	submitter := submit.NewSubmitter(submit.NewPipeline(backend, opts))
	defer submitter.Close()

	sess := wizard.NewSession(drafts)
	var resumed submit.Result
	st, submitted, err := sess.Resume(ctx, func(ctx context.Context, st *wizard.State) error {
		fmt.Fprintln(stdout, "Finishing the event you started before signing in...")
		res, err := submitter.Submit(ctx, st, nil)
		resumed = res
		return err
	})
	switch {
	case submitted && err == nil:
		if cerr := sess.Complete(ctx); cerr != nil {
			log.Warn().Err(cerr).Msg("clear draft")
		}
		fmt.Fprintf(stdout, "Created %q (%s) with %d guests.\n", st.EventName, resumed.EventID, len(resumed.Guests))
		return nil
	case err != nil && !submitted:
		log.Warn().Err(err).Msg("restore draft")
	}

	fn := &functions.Client{BaseURL: cfg.FunctionsURL, Token: token}
	m := newModel(deps{
		Describer: fn,
		Photos:    fn,
		Submitter: submitter,
		Session:   sess,
		Log:       log,
	}, st)
	if err != nil {
		m.err = err
	}

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(*model); ok && fm.result != nil {
		fmt.Fprintf(stdout, "Created %q (%s).\n", fm.st.EventName, fm.result.EventID)
	}
	return nil
}

// wizardLogger writes to a file since the terminal belongs to the UI.
func wizardLogger(cfg *config.Config) (zerolog.Logger, func() error, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := logger.OpenFile(filepath.Join(dir, "lockstep", "lockstep.log"))
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	log := logger.Setup(logger.Config{Level: cfg.LogLevel, Component: "wizard", Out: f})
	return log, f.Close, nil
}

// announcer connects to RabbitMQ when it is reachable so created events
// are announced to the worker. Submission works without it.
func announcer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (submit.Notifier, func() error) {
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}
	dctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rmq, err := broker.NewRabbitMQ(dctx, broker.RabbitMQConfig{URL: cfg.RabbitMQURL, ConnectionName: "lockstep-wizard"})
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, created events will not be announced")
		return nil, nil
	}
	if err := rmq.Declare(dctx, checkpoint.Topology()); err != nil {
		log.Warn().Err(err).Msg("declare topology")
		rmq.Close()
		return nil, nil
	}
	return &dispatch.Announcer{Broker: rmq}, rmq.Close
}
