package input

import (
	"errors"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
)

// ErrSessionClosed is returned by Session.NextEvent after the session
// has been closed.
var ErrSessionClosed = errors.New("input session closed")

// Window identifies a host window that can receive synthetic key events.
type Window uint32

// Session is the input side of the host windowing system.
type Session interface {
	// GrabKeyboard takes exclusive keyboard input.
	GrabKeyboard() error

	// UngrabKeyboard releases the exclusive grab.
	UngrabKeyboard() error

	// NextEvent waits for the next key press until deadline.
	// A zero deadline waits forever. ok is false when the deadline passed
	// without an event.
	NextEvent(deadline time.Time) (ev key.Event, ok bool, err error)

	// FocusedWindow returns the window that currently has input focus.
	FocusedWindow() (Window, error)

	// SendKey delivers a synthetic press of k to w.
	SendKey(w Window, k key.Key) error

	// LockMask returns the modifier bits of the lock keys
	// (Caps Lock, Num Lock, Scroll Lock).
	LockMask() key.Modifier
}

// Feedback shows the active chain to the user.
type Feedback interface {
	// SetText replaces the displayed text. A visible popup is not redrawn
	// until Show is called.
	SetText(text string)

	// Show maps or redraws the popup.
	Show() error

	// Hide unmaps the popup.
	Hide() error

	// Visible reports whether the popup is shown.
	Visible() bool

	// SetDeadline arms an auto-hide at t.
	SetDeadline(t time.Time)

	// Deadline returns the armed auto-hide time.
	Deadline() (time.Time, bool)

	// ClearDeadline disarms the auto-hide.
	ClearDeadline()

	// Close releases the popup's resources.
	Close() error
}

// Spawner runs a shell command line without waiting for it.
type Spawner interface {
	Spawn(command string) error
}

// Clock tells the engine what time it is.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// HideTimer implements the deadline half of Feedback.
// Feedback implementations embed it.
type HideTimer struct {
	at    time.Time
	armed bool
}

// SetDeadline arms the timer.
func (h *HideTimer) SetDeadline(t time.Time) {
	h.at = t
	h.armed = true
}

// Deadline returns the armed time.
func (h *HideTimer) Deadline() (time.Time, bool) {
	return h.at, h.armed
}

// ClearDeadline disarms the timer.
func (h *HideTimer) ClearDeadline() {
	h.at = time.Time{}
	h.armed = false
}

// NopFeedback is used when feedback is turned off.
type NopFeedback struct {
	HideTimer
}

// SetText implements Feedback.
func (*NopFeedback) SetText(string) {}

// Show implements Feedback.
func (*NopFeedback) Show() error { return nil }

// Hide implements Feedback.
func (*NopFeedback) Hide() error { return nil }

// Visible implements Feedback.
func (*NopFeedback) Visible() bool { return false }

// Close implements Feedback.
func (*NopFeedback) Close() error { return nil }
