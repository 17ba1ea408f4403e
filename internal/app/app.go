// Package app wires configuration, storage backends, displays and the
// history journal into the gofileup commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/config"
	"github.com/dmitrijs2005/gofileup/internal/flagx"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/progress"
	"github.com/dmitrijs2005/gofileup/internal/storage"
)

const defaultHistoryLimit = 20

type App struct {
	config *config.Config
	stdout io.Writer
	stderr io.Writer
	logger logging.Logger

	newClient  func(cfg *config.Config, logger logging.Logger) (storage.Client, error)
	newDisplay func() closingDisplay
	now        func() time.Time
}

// closingDisplay is a progress.Display the app must release once the run ends.
type closingDisplay interface {
	progress.Display
	Close()
}

type Option func(*App)

// WithStorage makes every command use client regardless of the backend
// setting.
func WithStorage(client storage.Client) Option {
	return func(a *App) {
		a.newClient = func(*config.Config, logging.Logger) (storage.Client, error) {
			return client, nil
		}
	}
}

func WithDisplay(d progress.Display) Option {
	return func(a *App) {
		a.newDisplay = func() closingDisplay { return nopCloser{d} }
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func NewApp(cfg *config.Config, stdout, stderr io.Writer, opts ...Option) (*App, error) {
	a := &App{
		config:    cfg,
		stdout:    stdout,
		stderr:    stderr,
		newClient: NewStorageClient,
		now:       time.Now,
	}
	a.newDisplay = a.pickDisplay

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		l, err := logging.New(stderr, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
		}
		a.logger = l
	}
	return a, nil
}

// Run dispatches the subcommand in args (the positional arguments left
// after global flags).
func (a *App) Run(ctx context.Context, args []string) error {
	name, rest, ok := flagx.Subcommand(args)
	if !ok {
		return fmt.Errorf("%w: missing command", common.ErrUsage)
	}

	switch name {
	case "upload":
		if len(rest) != 1 {
			return fmt.Errorf("%w: upload takes exactly one path", common.ErrUsage)
		}
		return a.Upload(ctx, rest[0])

	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		limit := fs.Int("limit", defaultHistoryLimit, "number of records to show, 0 for all")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", common.ErrUsage, err)
		}
		if fs.NArg() > 0 {
			return fmt.Errorf("%w: unexpected argument %q", common.ErrUsage, fs.Arg(0))
		}
		return a.History(ctx, *limit)

	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownCommand, name)
	}
}

// WatchSignals cancels the run on SIGINT or SIGTERM.
func WatchSignals(cancel context.CancelFunc) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// ExitCode maps a Run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case common.IsUsage(err), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

type nopCloser struct {
	progress.Display
}

func (nopCloser) Close() {}
