package app

import (
	"strings"

	"github.com/dshills/xchainkeys/internal/backend"
	"github.com/dshills/xchainkeys/internal/config/watcher"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/logging"
)

// load compiles the configuration into the root, creates the feedback
// surface and grabs every top-level key.
func (app *Application) load() error {
	res, err := app.compiler.CompileFile(app.root, app.path)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.options = res.Options
	app.diagnostics = res.Diagnostics
	app.logger.Info("loaded %s: %d top-level bindings, %d diagnostics", app.path, app.root.Len(), len(res.Diagnostics))
	app.dumpTree()

	if res.Options.Feedback {
		fb, err := app.backend.NewFeedback(backend.StyleFromOptions(res.Options))
		if err != nil {
			return &InitError{Component: "feedback", Err: err}
		}
		app.feedback = fb
	} else {
		app.feedback = &input.NopFeedback{}
	}

	app.engine = input.NewEngine(input.EngineConfig{
		Session:  app.backend,
		Feedback: app.feedback,
		Spawner:  app.opts.Spawner,
		Pending:  app.pending,
		Delay:    res.Options.Delay,
		Poll:     app.opts.IdlePoll,
		Clock:    app.clock,
		Logger:   app.logger.WithComponent("chain"),
		Metrics:  app.metrics,
	})

	for _, n := range app.root.Children() {
		if err := app.backend.GrabPrefix(n.Key); err != nil {
			app.logger.Warn("%v", &input.ComponentError{Component: "grab", Action: n.Key.String(), Err: err})
			continue
		}
		app.grabbed = append(app.grabbed, n.Key)
	}
	return nil
}

// teardown releases the grabs, then the tree, then the feedback surface.
func (app *Application) teardown() {
	for _, k := range app.grabbed {
		if err := app.backend.UngrabPrefix(k); err != nil {
			app.logger.Warn("%v", &input.ComponentError{Component: "ungrab", Action: k.String(), Err: err})
		}
	}
	app.grabbed = nil

	app.root.Release()

	if app.feedback != nil {
		if err := app.feedback.Close(); err != nil {
			app.logger.Warn("%v", &input.ComponentError{Component: "feedback", Action: "close", Err: err})
		}
		app.feedback = nil
	}
	app.engine = nil
}

// reloadIfRequested rebuilds the tree if a reload is pending.
// Failing to load the new configuration is fatal.
func (app *Application) reloadIfRequested() error {
	path, ok := app.pending.TakeReload()
	if !ok {
		return nil
	}
	app.pending.TakeReentry()

	if path != "" && path != app.path {
		app.logger.Info("switching configuration to %s", path)
		app.path = path
		if app.watcher != nil {
			app.unwatch()
			app.watch()
		}
	}

	app.logger.Info("reloading %s", app.path)
	app.teardown()
	return app.load()
}

// dumpTree logs the global options and the tree at debug level.
func (app *Application) dumpTree() {
	if !app.logger.Enabled(logging.LevelDebug) {
		return
	}
	o := app.options
	app.logger.Debug("timeout %s, delay %s, feedback %t, font %q, foreground %q, background %q",
		o.Timeout, o.Delay, o.Feedback, o.Font, o.Foreground, o.Background)

	var sb strings.Builder
	if err := app.root.List(&sb); err != nil {
		return
	}
	for line := range strings.Lines(sb.String()) {
		app.logger.Debug("%s", strings.TrimSuffix(line, "\n"))
	}
}

// watch starts the file watcher. Changes request a reload.
func (app *Application) watch() {
	cfg := watcher.DefaultConfig(app.path)
	cfg.Logger = app.logger.WithComponent("watcher")
	if app.opts.WatchDebounce > 0 {
		cfg.Debounce = app.opts.WatchDebounce
	}

	w, err := watcher.New(cfg)
	if err != nil {
		app.logger.Warn("%v", &input.ComponentError{Component: "watcher", Action: "create", Err: err})
		return
	}
	events, err := w.Start()
	if err != nil {
		_ = w.Stop()
		app.logger.Warn("%v", &input.ComponentError{Component: "watcher", Action: "start", Err: err})
		return
	}

	app.watcher = w
	app.watchStop = make(chan struct{})
	app.watchWG.Add(1)
	go func(stop <-chan struct{}) {
		defer app.watchWG.Done()
		for {
			select {
			case ev := <-events:
				app.logger.Info("%s: %s, reload requested", ev.Path, ev.Op)
				app.pending.RequestReload("")
			case <-stop:
				return
			}
		}
	}(app.watchStop)
	app.logger.Debug("watching %s", w.Path())
}

func (app *Application) unwatch() {
	if app.watcher == nil {
		return
	}
	close(app.watchStop)
	app.watchWG.Wait()
	if err := app.watcher.Stop(); err != nil {
		app.logger.Warn("%v", &input.ComponentError{Component: "watcher", Action: "stop", Err: err})
	}
	app.watcher = nil
}
