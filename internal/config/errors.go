package config

import "fmt"

// ReadError is returned when a configuration file cannot be read.
type ReadError struct {
	// Path is the file that failed.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read config %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Diagnostic is an advisory message about one line of a configuration.
type Diagnostic struct {
	// Line is the 1-based line number, or 0 for whole-tree problems.
	Line int
	// Text describes the problem.
	Text string
}

// String formats the diagnostic as "line N: text".
func (d Diagnostic) String() string {
	if d.Line == 0 {
		return d.Text
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Text)
}
