// Package app is the root dispatcher of xchainkeys. It owns the binding
// tree, grabs the top-level keys, starts a chain for every top-level key
// press, and rebuilds everything when a reload is requested.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/xchainkeys/internal/backend"
	"github.com/dshills/xchainkeys/internal/config"
	"github.com/dshills/xchainkeys/internal/config/watcher"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
	"github.com/dshills/xchainkeys/internal/logging"
)

// DefaultIdlePoll is the longest the idle loop blocks before it looks
// at pending reload requests and context cancellation.
const DefaultIdlePoll = 250 * time.Millisecond

// Options configures the application.
type Options struct {
	// ConfigPath is the path of the configuration file.
	ConfigPath string

	// Backend is the display connection. Required. The caller closes it.
	Backend backend.Backend

	// Spawner runs :exec and :group commands. Required.
	Spawner input.Spawner

	// Logger defaults to a discarding logger.
	Logger *logging.Logger

	// Clock defaults to the wall clock.
	Clock input.Clock

	// Watch reloads the configuration when the file changes.
	Watch bool

	// WatchDebounce overrides the watcher's quiet period.
	WatchDebounce time.Duration

	// IdlePoll defaults to DefaultIdlePoll. Chains use it too, so a
	// canceled context releases a grabbed keyboard within one poll.
	IdlePoll time.Duration
}

// Application is the root dispatcher.
type Application struct {
	opts     Options
	backend  backend.Backend
	logger   *logging.Logger
	clock    input.Clock
	compiler *config.Compiler
	pending  *input.Pending
	metrics  *input.Metrics

	// Rebuilt on every load. The root itself is kept.
	path        string
	root        *keymap.Node
	options     config.Options
	diagnostics []config.Diagnostic
	feedback    input.Feedback
	engine      *input.Engine
	grabbed     []key.Key

	watcher   *watcher.Watcher
	watchStop chan struct{}
	watchWG   sync.WaitGroup

	running atomic.Bool
}

// New creates an application and loads the configuration.
// A missing or unreadable file, or a feedback window that cannot be
// created, is an *InitError.
func New(opts Options) (*Application, error) {
	if opts.Backend == nil || opts.Spawner == nil {
		return nil, ErrNoBackend
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = input.SystemClock{}
	}
	if opts.IdlePoll <= 0 {
		opts.IdlePoll = DefaultIdlePoll
	}

	app := &Application{
		opts:    opts,
		backend: opts.Backend,
		logger:  opts.Logger,
		clock:   opts.Clock,
		compiler: config.NewCompiler(opts.Backend.Keys(),
			config.WithLogger(opts.Logger.WithComponent("config"))),
		pending: &input.Pending{},
		metrics: input.NewMetrics(),
		path:    opts.ConfigPath,
		root:    keymap.NewRoot(),
	}
	if err := app.load(); err != nil {
		app.teardown()
		return nil, err
	}
	return app, nil
}

// Run dispatches top-level key presses until ctx is canceled or the
// backend fails. Cancellation is a clean shutdown and returns nil.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)
	defer app.shutdown()

	if app.opts.Watch {
		app.watch()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := app.reloadIfRequested(); err != nil {
			return err
		}

		ev, ok, err := app.backend.NextEvent(app.idleDeadline())
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, input.ErrSessionClosed) {
				return nil
			}
			return err
		}
		if err := app.expireFeedback(); err != nil {
			return err
		}
		if !ok || ev.IsModifier {
			continue
		}

		node := app.root.Match(ev.Key, app.backend.LockMask())
		if node == nil {
			app.logger.Debug("%s: not bound at top level", ev.Key)
			continue
		}
		if err := app.dispatch(ctx, node); err != nil {
			return err
		}
	}
}

// dispatch activates node and then every queued re-entry.
func (app *Application) dispatch(ctx context.Context, node *keymap.Node) error {
	app.feedback.ClearDeadline()
	if err := app.feedback.Hide(); err != nil {
		return err
	}

	for next := node; next != nil && ctx.Err() == nil; next = app.pending.TakeReentry() {
		outcome, err := app.engine.Activate(ctx, next)
		if err != nil {
			return err
		}
		app.logger.Debug("%s: %s", next.Path(), outcome)
	}
	return nil
}

// idleDeadline is when the idle wait gives up: the next poll, or the
// armed auto-hide if that comes first.
func (app *Application) idleDeadline() time.Time {
	wake := app.clock.Now().Add(app.opts.IdlePoll)
	if at, armed := app.feedback.Deadline(); armed && at.Before(wake) {
		wake = at
	}
	return wake
}

// expireFeedback hides a message whose auto-hide time has passed.
func (app *Application) expireFeedback() error {
	at, armed := app.feedback.Deadline()
	if !armed || app.clock.Now().Before(at) {
		return nil
	}
	app.feedback.ClearDeadline()
	return app.feedback.Hide()
}

// RequestReload asks for the configuration to be reloaded once the
// current chain, if any, has finished. Safe for concurrent use.
func (app *Application) RequestReload() {
	app.pending.RequestReload("")
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Root returns the binding tree.
func (app *Application) Root() *keymap.Node {
	return app.root
}

// ConfigPath returns the configuration file in use. A :load with a path
// argument changes it.
func (app *Application) ConfigPath() string {
	return app.path
}

// GlobalOptions returns the global options of the last load.
func (app *Application) GlobalOptions() config.Options {
	return app.options
}

// Diagnostics returns the compiler diagnostics of the last load.
func (app *Application) Diagnostics() []config.Diagnostic {
	return app.diagnostics
}

// Metrics returns the chain metrics. They survive reloads.
func (app *Application) Metrics() *input.Metrics {
	return app.metrics
}

func (app *Application) shutdown() {
	app.unwatch()
	app.teardown()

	s := app.metrics.Snapshot()
	app.logger.Debug("shutdown after %s: %d chains, %d activations, %d timeouts, %d aborts",
		s.Uptime.Round(time.Second), s.ChainsEntered, s.Activations, s.Timeouts, s.Aborts)
}
