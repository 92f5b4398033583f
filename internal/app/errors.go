package app

import "errors"

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoBackend indicates Options.Backend was not set.
	ErrNoBackend = errors.New("no backend")
)

// InitError represents a failure to set up a component. Startup and
// reload failures are fatal.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
