// Package testutil provides fakes for the input ports: a scripted
// session driven by a fake clock, a recording popup and a recording
// command spawner.
package testutil

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
)

// ErrScriptDone is returned by Session.NextEvent when the script is used
// up and the caller would wait forever.
var ErrScriptDone = errors.New("testutil: script exhausted")

var parser = key.NewParser(key.Keysyms)

// Key parses a keyspec against the built-in keysym table.
func Key(spec string) key.Key {
	return parser.MustParse(spec)
}

// Parser returns the parser used by Key.
func Parser() *key.Parser {
	return parser
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now implements input.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// set moves the clock to t unless t is in the past.
func (c *Clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// Step is one scripted key event.
type Step struct {
	// After is the delay since the previous step.
	After time.Duration
	Event key.Event
}

// Press returns a step for a key press that arrives after d.
func Press(spec string, after time.Duration) Step {
	return Step{After: after, Event: key.Event{Key: Key(spec)}}
}

// PressKey returns a step for an already built live key.
func PressKey(k key.Key, after time.Duration) Step {
	return Step{After: after, Event: key.Event{Key: k}}
}

// Modifier returns a step for a bare modifier press such as "Shift_L".
func Modifier(name string, after time.Duration) Step {
	return Step{After: after, Event: key.Event{Key: Key(name), IsModifier: true}}
}

// SentKey records a synthetic key event.
type SentKey struct {
	Window input.Window
	Key    key.Key
}

// Session is a scripted input.Session.
type Session struct {
	Clock *Clock

	// Focus is returned by FocusedWindow.
	Focus input.Window

	// Locks is returned by LockMask.
	Locks key.Modifier

	// GrabErr makes GrabKeyboard fail.
	GrabErr error

	// SendErr makes SendKey fail.
	SendErr error

	mu      sync.Mutex
	steps   []Step
	due     time.Time
	grabbed bool
	grabs   int
	ungrabs int
	sent    []SentKey
	closed  bool
	log     []string
}

// NewSession returns a session that plays steps against clock.
func NewSession(clock *Clock, steps ...Step) *Session {
	return &Session{
		Clock: clock,
		steps: steps,
		due:   clock.Now(),
		Locks: key.ModLock | key.Mod2,
	}
}

// Queue appends steps. Their delays count from the later of now and the
// last queued step.
func (s *Session) Queue(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		if now := s.Clock.Now(); now.After(s.due) {
			s.due = now
		}
	}
	s.steps = append(s.steps, steps...)
}

// Remaining returns the number of unplayed steps.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Close makes NextEvent fail with input.ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// GrabKeyboard implements input.Session.
func (s *Session) GrabKeyboard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GrabErr != nil {
		return s.GrabErr
	}
	s.grabbed = true
	s.grabs++
	s.log = append(s.log, "grab")
	return nil
}

// UngrabKeyboard implements input.Session.
func (s *Session) UngrabKeyboard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grabbed = false
	s.ungrabs++
	s.log = append(s.log, "ungrab")
	return nil
}

// Grabbed reports whether the keyboard is grabbed.
func (s *Session) Grabbed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabbed
}

// Grabs returns how often the keyboard was grabbed and released.
func (s *Session) Grabs() (grabs, ungrabs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabs, s.ungrabs
}

// Log returns the grab, ungrab and send calls in order.
func (s *Session) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// NextEvent implements input.Session.
// The clock jumps to the next step's due time, or to deadline if that
// comes first.
func (s *Session) NextEvent(deadline time.Time) (key.Event, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return key.Event{}, false, input.ErrSessionClosed
	}
	if len(s.steps) == 0 {
		if deadline.IsZero() {
			return key.Event{}, false, ErrScriptDone
		}
		s.Clock.set(deadline)
		return key.Event{}, false, nil
	}

	step := s.steps[0]
	due := s.due.Add(step.After)
	if !deadline.IsZero() && deadline.Before(due) {
		s.Clock.set(deadline)
		return key.Event{}, false, nil
	}

	s.Clock.set(due)
	s.due = s.Clock.Now()
	s.steps = s.steps[1:]
	ev := step.Event
	ev.Timestamp = s.due
	return ev, true, nil
}

// FocusedWindow implements input.Session.
func (s *Session) FocusedWindow() (input.Window, error) {
	return s.Focus, nil
}

// SendKey implements input.Session.
func (s *Session) SendKey(w input.Window, k key.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return s.SendErr
	}
	s.sent = append(s.sent, SentKey{Window: w, Key: k})
	s.log = append(s.log, "send "+k.String())
	return nil
}

// Sent returns the synthetic key events sent so far.
func (s *Session) Sent() []SentKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentKey(nil), s.sent...)
}

// LockMask implements input.Session.
func (s *Session) LockMask() key.Modifier {
	return s.Locks
}

// Feedback records what the engine shows.
type Feedback struct {
	input.HideTimer

	mu      sync.Mutex
	text    string
	visible bool
	shown   []string
	closed  bool
}

// SetText implements input.Feedback.
func (f *Feedback) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

// Show implements input.Feedback.
func (f *Feedback) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = true
	f.shown = append(f.shown, f.text)
	return nil
}

// Hide implements input.Feedback.
func (f *Feedback) Hide() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = false
	return nil
}

// Visible implements input.Feedback.
func (f *Feedback) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

// Close implements input.Feedback.
func (f *Feedback) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.visible = false
	return nil
}

// Text returns the current text.
func (f *Feedback) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

// Shown returns the text of every Show call.
func (f *Feedback) Shown() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.shown...)
}

// Closed reports whether Close was called.
func (f *Feedback) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Spawner records commands instead of running them.
type Spawner struct {
	// Err is returned by every Spawn call.
	Err error

	mu       sync.Mutex
	commands []string
}

// Spawn implements input.Spawner.
func (s *Spawner) Spawn(command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	return s.Err
}

// Commands returns every spawned command line.
func (s *Spawner) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}
