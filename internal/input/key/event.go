package key

import "time"

// Event represents a single key press delivered by a backend.
type Event struct {
	// Key is the pressed key with the live modifier state.
	Key Key

	// IsModifier is true when the pressed key is itself a modifier
	// (Shift, Control, Alt ...). Such presses never advance a chain.
	IsModifier bool

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key event with the current timestamp.
func NewEvent(k Key) Event {
	return Event{
		Key:       k,
		Timestamp: time.Now(),
	}
}

// NewModifierEvent creates an event for a bare modifier key press.
func NewModifierEvent(k Key) Event {
	return Event{
		Key:        k,
		IsModifier: true,
		Timestamp:  time.Now(),
	}
}

// String returns the keyspec of the pressed key.
func (e Event) String() string {
	return e.Key.String()
}
