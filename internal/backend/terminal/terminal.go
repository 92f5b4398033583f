package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/xchainkeys/internal/backend"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
)

// maxLines is how many log lines are kept for the log area.
const maxLines = 500

// Config configures a Terminal.
type Config struct {
	// Quit is the key that ends the session. It is never delivered as an
	// event; OnQuit is called instead.
	Quit key.Key

	// OnQuit is called from the event goroutine when Quit is pressed.
	OnQuit func()
}

// Terminal is a backend.Backend drawn on a tcell screen.
type Terminal struct {
	screen tcell.Screen
	cfg    Config

	events    chan key.Event
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	grabbed  bool
	prefixes []key.Key
	lines    []string
	status   string
	style    tcell.Style
	shown    bool
}

var _ backend.Backend = (*Terminal)(nil)

// Open initializes the controlling terminal.
func Open(cfg Config) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	return New(screen, cfg)
}

// New takes over screen, which must not be initialized yet.
func New(screen tcell.Screen, cfg Config) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: init: %w", err)
	}
	screen.HideCursor()

	t := &Terminal{
		screen: screen,
		cfg:    cfg,
		events: make(chan key.Event, 16),
		done:   make(chan struct{}),
		style:  tcell.StyleDefault.Reverse(true),
	}
	t.redraw()
	go t.poll()
	return t, nil
}

func (t *Terminal) poll() {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			t.screen.Sync()
			t.redraw()
		case *tcell.EventKey:
			kev, ok := convertEvent(ev)
			if !ok {
				continue
			}
			if !t.cfg.Quit.IsZero() && kev.Key.Equals(t.cfg.Quit) {
				if t.cfg.OnQuit != nil {
					t.cfg.OnQuit()
				}
				continue
			}
			select {
			case t.events <- kev:
			case <-t.done:
				return
			}
		}
	}
}

// Logf appends a line to the log area.
func (t *Terminal) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.lines = append(t.lines, line)
	if len(t.lines) > maxLines {
		t.lines = t.lines[len(t.lines)-maxLines:]
	}
	t.mu.Unlock()
	t.redraw()
}

// Writer returns an io.Writer that appends every written line to the
// log area. It is meant for a logging.Logger while the screen is in use.
func (t *Terminal) Writer() io.Writer {
	return logWriter{t}
}

type logWriter struct {
	t *Terminal
}

func (w logWriter) Write(p []byte) (int, error) {
	for line := range strings.Lines(string(p)) {
		w.t.Logf("%s", strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

// Lines returns the log area contents.
func (t *Terminal) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Prefixes returns the grabbed top-level keys.
func (t *Terminal) Prefixes() []key.Key {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]key.Key(nil), t.prefixes...)
}

// Grabbed reports whether a chain holds the keyboard.
func (t *Terminal) Grabbed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grabbed
}

func (t *Terminal) redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}

	header := "xchainkeys try: press a chain key"
	if !t.cfg.Quit.IsZero() {
		header += ", " + t.cfg.Quit.String() + " quits"
	}
	drawText(t.screen, 0, 0, w, header, tcell.StyleDefault.Bold(true))
	if t.grabbed {
		drawText(t.screen, w-6, 0, 6, "[grab]", tcell.StyleDefault.Bold(true))
	}

	// Log area: rows 1 .. h-2, newest at the bottom.
	rows := max(h-2, 0)
	first := max(len(t.lines)-rows, 0)
	for i, line := range t.lines[first:] {
		drawText(t.screen, 0, 1+i, w, line, tcell.StyleDefault)
	}

	if t.shown && h > 1 {
		drawText(t.screen, 0, h-1, w, padRight(t.status, w), t.style)
	}
	t.screen.Show()
}

func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= width {
			return
		}
		s.SetContent(x+col, y, r, nil, style)
		col++
	}
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// Keys implements backend.Backend.
func (t *Terminal) Keys() key.Table {
	return key.Keysyms
}

// GrabPrefix implements backend.Backend. Every terminal key reaches the
// dispatcher already; the grab is only recorded.
func (t *Terminal) GrabPrefix(k key.Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefixes = append(t.prefixes, k)
	return nil
}

// UngrabPrefix implements backend.Backend.
func (t *Terminal) UngrabPrefix(k key.Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.prefixes {
		if p.Equals(k) {
			t.prefixes = append(t.prefixes[:i], t.prefixes[i+1:]...)
			break
		}
	}
	return nil
}

// GrabKeyboard implements input.Session.
func (t *Terminal) GrabKeyboard() error {
	t.setGrabbed(true)
	return nil
}

// UngrabKeyboard implements input.Session.
func (t *Terminal) UngrabKeyboard() error {
	t.setGrabbed(false)
	return nil
}

func (t *Terminal) setGrabbed(v bool) {
	t.mu.Lock()
	t.grabbed = v
	t.mu.Unlock()
	t.redraw()
}

// NextEvent implements input.Session.
func (t *Terminal) NextEvent(deadline time.Time) (key.Event, bool, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ev := <-t.events:
		return ev, true, nil
	case <-timeout:
		return key.Event{}, false, nil
	case <-t.done:
		return key.Event{}, false, input.ErrSessionClosed
	}
}

// FocusedWindow implements input.Session. The terminal is the only window.
func (t *Terminal) FocusedWindow() (input.Window, error) {
	return 1, nil
}

// SendKey implements input.Session by logging the key.
func (t *Terminal) SendKey(w input.Window, k key.Key) error {
	t.Logf("sent %s to window 0x%x", k, uint32(w))
	return nil
}

// LockMask implements input.Session. Terminals do not report lock state.
func (t *Terminal) LockMask() key.Modifier {
	return key.ModNone
}

// NewFeedback implements backend.Backend.
func (t *Terminal) NewFeedback(style backend.Style) (input.Feedback, error) {
	s := tcell.StyleDefault.Reverse(true)
	fg, bg := tcell.GetColor(style.Foreground), tcell.GetColor(style.Background)
	if fg != tcell.ColorDefault && bg != tcell.ColorDefault {
		s = tcell.StyleDefault.Foreground(fg).Background(bg)
	}
	t.mu.Lock()
	t.style = s
	t.mu.Unlock()
	return &StatusLine{term: t}, nil
}

// Close implements backend.Backend and restores the terminal.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.screen.Fini()
	})
	return nil
}

// StatusLine is the feedback shown on the bottom line.
type StatusLine struct {
	input.HideTimer

	term *Terminal
	text string
}

// SetText implements input.Feedback.
func (s *StatusLine) SetText(text string) {
	s.text = text
}

// Show implements input.Feedback.
func (s *StatusLine) Show() error {
	s.term.mu.Lock()
	s.term.status = s.text
	s.term.shown = true
	s.term.mu.Unlock()
	s.term.redraw()
	return nil
}

// Hide implements input.Feedback.
func (s *StatusLine) Hide() error {
	s.term.mu.Lock()
	s.term.shown = false
	s.term.mu.Unlock()
	s.term.redraw()
	return nil
}

// Visible implements input.Feedback.
func (s *StatusLine) Visible() bool {
	s.term.mu.Lock()
	defer s.term.mu.Unlock()
	return s.term.shown
}

// Close implements input.Feedback.
func (s *StatusLine) Close() error {
	return s.Hide()
}

// Echo is a spawner that reports each command on the terminal and then
// hands it to Next. With a nil Next commands are only reported.
type Echo struct {
	Term *Terminal
	Next input.Spawner
}

// Spawn implements input.Spawner.
func (e Echo) Spawn(command string) error {
	if e.Next == nil {
		e.Term.Logf("would run: %s", command)
		return nil
	}
	e.Term.Logf("run: %s", command)
	return e.Next.Spawn(command)
}
