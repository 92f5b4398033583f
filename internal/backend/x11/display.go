package x11

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/keybind"

	"github.com/dshills/xchainkeys/internal/backend"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/logging"
)

var (
	// ErrConnectionClosed is returned once the X server connection is gone.
	ErrConnectionClosed = errors.New("x11: connection closed")

	// ErrAlreadyGrabbed is returned when another client holds a key grab.
	ErrAlreadyGrabbed = errors.New("x11: key is grabbed by another client")

	// ErrKeyboardBusy is returned when the keyboard cannot be grabbed.
	ErrKeyboardBusy = errors.New("x11: keyboard is grabbed by another client")
)

const (
	grabAttempts = 10
	grabRetry    = 10 * time.Millisecond
)

// Display is a connection to an X server.
type Display struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	root   xproto.Window
	keys   keyTable
	mods   modifierMap
	logger *logging.Logger

	events chan key.Event

	dead     chan struct{}
	deadErr  error
	deadOnce sync.Once

	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	popup *Popup
}

// Open connects to the display named by $DISPLAY.
func Open(logger *logging.Logger) (*Display, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	keybind.Initialize(xu)

	d := &Display{
		xu:     xu,
		conn:   xu.Conn(),
		root:   xu.RootWin(),
		keys:   newKeyTable(xu),
		logger: logger.WithComponent("x11"),
		events: make(chan key.Event, 16),
		dead:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := d.loadModifierMap(); err != nil {
		d.conn.Close()
		return nil, err
	}
	go d.pump()
	return d, nil
}

var _ backend.Backend = (*Display)(nil)

func (d *Display) loadModifierMap() error {
	reply, err := xproto.GetModifierMapping(d.conn).Reply()
	if err != nil {
		return fmt.Errorf("x11: modifier mapping: %w", err)
	}
	d.mods = decodeModifierMap(int(reply.KeycodesPerModifier), reply.Keycodes,
		func(kc xproto.Keycode) xproto.Keysym {
			return keybind.KeysymGet(d.xu, kc, 0)
		})
	d.logger.Debug("lock mask %s", d.mods.locks())
	return nil
}

// pump reads X events until the connection closes.
func (d *Display) pump() {
	for {
		ev, xerr := d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			d.fail(ErrConnectionClosed)
			return
		}
		if xerr != nil {
			d.logger.Debug("error event: %v", xerr)
			continue
		}

		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			kev := translateKeyPress(e, d.keys.Name, d.mods)
			select {
			case d.events <- kev:
			case <-d.done:
				return
			}
		case xproto.ExposeEvent:
			if e.Count == 0 {
				d.expose(e.Window)
			}
		}
	}
}

func (d *Display) fail(err error) {
	d.deadOnce.Do(func() {
		d.deadErr = err
		close(d.dead)
	})
}

func (d *Display) expose(w xproto.Window) {
	d.mu.Lock()
	p := d.popup
	d.mu.Unlock()
	if p != nil {
		p.expose(w)
	}
}

// Keys implements backend.Backend.
func (d *Display) Keys() key.Table {
	return d.keys
}

// LockMask implements input.Session.
func (d *Display) LockMask() key.Modifier {
	return d.mods.locks()
}

// GrabPrefix implements backend.Backend. Either every lock combination
// of k is grabbed or none is.
func (d *Display) GrabPrefix(k key.Key) error {
	grab := func(locks key.Modifier) error {
		return xproto.GrabKeyChecked(d.conn, false, d.root,
			uint16(k.Modifiers|locks), xproto.Keycode(k.Code),
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
	}
	ungrab := func(locks key.Modifier) error {
		return xproto.UngrabKeyChecked(d.conn, xproto.Keycode(k.Code), d.root,
			uint16(k.Modifiers|locks)).Check()
	}

	err := grabCombinations(d.mods.combinations(), grab, ungrab)
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return fmt.Errorf("grab %s: %w", k, ErrAlreadyGrabbed)
		}
		return fmt.Errorf("x11: grab %s: %w", k, err)
	}
	return nil
}

// UngrabPrefix implements backend.Backend.
func (d *Display) UngrabPrefix(k key.Key) error {
	var errs []error
	for _, locks := range d.mods.combinations() {
		err := xproto.UngrabKeyChecked(d.conn, xproto.Keycode(k.Code), d.root,
			uint16(k.Modifiers|locks)).Check()
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("x11: ungrab %s: %w", k, errors.Join(errs...))
	}
	return nil
}

// GrabKeyboard implements input.Session. The grab is retried briefly
// because the key release of the chain key may still be in flight.
func (d *Display) GrabKeyboard() error {
	for attempt := 1; ; attempt++ {
		reply, err := xproto.GrabKeyboard(d.conn, true, d.root, xproto.TimeCurrentTime,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
		if err != nil {
			return fmt.Errorf("x11: grab keyboard: %w", err)
		}
		if reply.Status == xproto.GrabStatusSuccess {
			return nil
		}
		if attempt == grabAttempts {
			return fmt.Errorf("%w (status %d)", ErrKeyboardBusy, reply.Status)
		}
		time.Sleep(grabRetry)
	}
}

// UngrabKeyboard implements input.Session.
func (d *Display) UngrabKeyboard() error {
	if err := xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("x11: ungrab keyboard: %w", err)
	}
	return nil
}

// NextEvent implements input.Session.
func (d *Display) NextEvent(deadline time.Time) (key.Event, bool, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ev := <-d.events:
		return ev, true, nil
	case <-timeout:
		return key.Event{}, false, nil
	case <-d.dead:
		return key.Event{}, false, d.deadErr
	case <-d.done:
		return key.Event{}, false, input.ErrSessionClosed
	}
}

// FocusedWindow implements input.Session.
func (d *Display) FocusedWindow() (input.Window, error) {
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: input focus: %w", err)
	}
	return input.Window(reply.Focus), nil
}

// SendKey implements input.Session.
func (d *Display) SendKey(w input.Window, k key.Key) error {
	ev := xproto.KeyPressEvent{
		Detail:     xproto.Keycode(k.Code),
		Time:       xproto.TimeCurrentTime,
		Root:       d.root,
		Event:      xproto.Window(w),
		Child:      xproto.WindowNone,
		RootX:      1,
		RootY:      1,
		EventX:     1,
		EventY:     1,
		State:      uint16(k.Modifiers),
		SameScreen: true,
	}
	err := xproto.SendEventChecked(d.conn, true, xproto.Window(w),
		xproto.EventMaskKeyPress, string(ev.Bytes())).Check()
	if err != nil {
		return fmt.Errorf("x11: send %s: %w", k, err)
	}
	return nil
}

// NewFeedback implements backend.Backend.
func (d *Display) NewFeedback(style backend.Style) (input.Feedback, error) {
	p, err := newPopup(d, style)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.popup = p
	d.mu.Unlock()
	return p, nil
}

func (d *Display) forget(p *Popup) {
	d.mu.Lock()
	if d.popup == p {
		d.popup = nil
	}
	d.mu.Unlock()
}

// Close implements backend.Backend.
func (d *Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		d.conn.Close()
	})
	return nil
}
