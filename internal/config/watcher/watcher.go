// Package watcher reports changes to the xchainkeys configuration file.
//
// The directory containing the file is watched, so editors that replace
// the file on save (write to a temp file, then rename) are noticed too.
// Bursts of events are coalesced into a single notification.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/xchainkeys/internal/logging"
)

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created or moved into place.
	OpCreate
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Event is sent once a burst of changes to the file has settled.
type Event struct {
	// Path is the watched file.
	Path string

	// Op is the last operation seen in the burst.
	Op Operation

	// Time is when the last operation was seen.
	Time time.Time
}

// Config holds watcher configuration options.
type Config struct {
	// Path is the file to watch.
	Path string

	// Debounce is how long the file must stay quiet before an Event is sent.
	Debounce time.Duration

	// Logger receives watch errors. May be nil.
	Logger *logging.Logger
}

// DefaultConfig returns the default configuration for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:     path,
		Debounce: 200 * time.Millisecond,
	}
}

// Watcher monitors a single file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	logger    *logging.Logger
	events    chan Event
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      path,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger,
		events:    make(chan Event, 1),
		done:      make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching and returns the notification channel.
// At most one notification is buffered; later ones are dropped until it
// is received.
func (w *Watcher) Start() (<-chan Event, error) {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	return w.events, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Event
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			op, relevant := w.classify(ev)
			if !relevant {
				continue
			}
			pending = Event{Path: w.path, Op: op, Time: time.Now()}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case w.events <- pending:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watching %s: %v", w.path, err)

		case <-w.done:
			return
		}
	}
}

// classify reports whether ev touches the watched file.
func (w *Watcher) classify(ev fsnotify.Event) (Operation, bool) {
	if filepath.Clean(ev.Name) != w.path {
		return 0, false
	}
	switch {
	case ev.Op.Has(fsnotify.Create):
		return OpCreate, true
	case ev.Op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}
