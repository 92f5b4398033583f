package input

import "fmt"

// ComponentError represents a non-fatal error from a specific component.
type ComponentError struct {
	Component string // e.g. "grab", "keyboard", "watcher"
	Action    string // action being performed
	Err       error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
