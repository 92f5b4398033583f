package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
	"github.com/dshills/xchainkeys/internal/logging"
)

// Outcome is how an activation ended.
type Outcome int

const (
	// OutcomeActivated means a binding ran.
	OutcomeActivated Outcome = iota

	// OutcomeTimedOut means no key arrived before the chain timeout.
	OutcomeTimedOut

	// OutcomeAborted means an :abort binding was pressed.
	OutcomeAborted

	// OutcomeEscaped means the chain key was replayed to the focused window.
	OutcomeEscaped

	// OutcomeUnbound means a key without a binding ended the chain.
	OutcomeUnbound
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeActivated:
		return "activated"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeAborted:
		return "aborted"
	case OutcomeEscaped:
		return "escaped"
	case OutcomeUnbound:
		return "no binding"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// DefaultPoll is the longest a chain blocks in one wait before it looks
// at context cancellation.
const DefaultPoll = 250 * time.Millisecond

// EngineConfig holds an Engine's collaborators.
type EngineConfig struct {
	Session  Session
	Feedback Feedback
	Spawner  Spawner

	// Pending receives re-entry and reload requests. Required.
	Pending *Pending

	// Delay is how long a chain waits before showing feedback, and how
	// long "no binding" messages stay up.
	Delay time.Duration

	// Clock defaults to SystemClock.
	Clock Clock

	// Poll bounds every wait of a cancelable activation. Defaults to
	// DefaultPoll.
	Poll time.Duration

	// Logger defaults to a discarding logger.
	Logger *logging.Logger

	// Metrics defaults to a fresh tracker.
	Metrics *Metrics
}

// Engine is the chain state machine.
// It is not safe for concurrent use; chains run one at a time.
type Engine struct {
	session  Session
	feedback Feedback
	spawner  Spawner
	pending  *Pending
	delay    time.Duration
	poll     time.Duration
	clock    Clock
	logger   *logging.Logger
	metrics  *Metrics
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		session:  cfg.Session,
		feedback: cfg.Feedback,
		spawner:  cfg.Spawner,
		pending:  cfg.Pending,
		delay:    cfg.Delay,
		poll:     cfg.Poll,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if e.feedback == nil {
		e.feedback = &NopFeedback{}
	}
	if e.pending == nil {
		e.pending = &Pending{}
	}
	if e.poll <= 0 {
		e.poll = DefaultPoll
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	return e
}

// Pending returns the request queue the engine writes to.
func (e *Engine) Pending() *Pending {
	return e.pending
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Activate runs the action of n.
// Errors come only from waiting for events and from the feedback surface.
// Keyboard grab and key replay failures are logged and end the chain, and
// a failing command is logged and does not. When ctx is canceled the
// chain ends as aborted and the keyboard is released.
func (e *Engine) Activate(ctx context.Context, n *keymap.Node) (Outcome, error) {
	e.logger.Debug(" -> %s %s %s", n.Path(), n.Action, n.Argument)

	switch n.Action {
	case keymap.ActionEnter:
		return e.enter(ctx, n)
	case keymap.ActionEscape:
		e.escape(n)
		return OutcomeEscaped, nil
	case keymap.ActionAbort:
		return OutcomeAborted, nil
	case keymap.ActionExec:
		e.exec(n)
		return OutcomeActivated, nil
	case keymap.ActionGroup:
		return e.group(ctx, n)
	case keymap.ActionLoad:
		e.pending.RequestReload(n.Argument)
		return OutcomeActivated, nil
	default:
		return OutcomeUnbound, nil
	}
}

// enter runs one chain frame: wait for keys below n until the chain ends.
func (e *Engine) enter(ctx context.Context, n *keymap.Node) (outcome Outcome, err error) {
	start := e.clock.Now()
	path := n.Path()

	e.feedback.SetText(path)
	if e.feedback.Visible() {
		if err := e.feedback.Show(); err != nil {
			return OutcomeAborted, err
		}
	}

	top := n.IsTopLevel()
	if top {
		if gerr := e.session.GrabKeyboard(); gerr != nil {
			e.warn("grab", gerr)
			outcome = OutcomeAborted
			if _, armed := e.feedback.Deadline(); !armed {
				err = e.feedback.Hide()
			}
			e.metrics.RecordChain(outcome, top, e.clock.Now().Sub(start))
			return outcome, err
		}
	}

	outcome, err = e.await(ctx, n, path, start)

	if top {
		if uerr := e.session.UngrabKeyboard(); uerr != nil {
			e.warn("ungrab", uerr)
		}
	}
	if _, armed := e.feedback.Deadline(); !armed {
		if herr := e.feedback.Hide(); herr != nil {
			err = errors.Join(err, herr)
		}
	}

	e.metrics.RecordChain(outcome, top, e.clock.Now().Sub(start))
	return outcome, err
}

// await is the key loop of a chain frame.
func (e *Engine) await(ctx context.Context, n *keymap.Node, path string, start time.Time) (Outcome, error) {
	var deadline time.Time
	if n.Timeout > 0 {
		deadline = start.Add(n.Timeout)
	}
	showAt := start.Add(e.delay)
	popupDue := !e.feedback.Visible()
	locks := e.session.LockMask()

	for {
		now := e.clock.Now()

		if popupDue && !now.Before(showAt) {
			if err := e.feedback.Show(); err != nil {
				return OutcomeAborted, err
			}
			popupDue = false
		}
		if hideAt, armed := e.feedback.Deadline(); armed && !now.Before(hideAt) {
			// A "no binding" message expired while the chain is still active.
			e.feedback.ClearDeadline()
			e.feedback.SetText(path)
			if err := e.feedback.Show(); err != nil {
				return OutcomeAborted, err
			}
		}
		if !deadline.IsZero() && !now.Before(deadline) {
			e.logger.Debug("Timed out")
			return OutcomeTimedOut, nil
		}
		if ctx.Err() != nil {
			e.logger.Debug("Canceled")
			return OutcomeAborted, nil
		}

		wake := deadline
		if popupDue {
			wake = earliest(wake, showAt)
		}
		if hideAt, armed := e.feedback.Deadline(); armed {
			wake = earliest(wake, hideAt)
		}

		ev, ok, err := e.session.NextEvent(e.bound(ctx, wake))
		if err != nil {
			return OutcomeAborted, err
		}
		if !ok || ev.IsModifier {
			continue
		}

		child := n.Match(ev.Key, locks)
		if child == nil {
			if err := e.noBinding(path, ev.Key); err != nil {
				return OutcomeUnbound, err
			}
			popupDue = false
			if n.Abort == keymap.AbortAuto {
				return OutcomeUnbound, nil
			}
			continue
		}

		if child.Action == keymap.ActionAbort {
			e.logger.Debug("Aborted")
			return OutcomeAborted, nil
		}

		outcome, err := e.Activate(ctx, child)
		if err != nil {
			return outcome, err
		}

		switch {
		case child.Action == keymap.ActionEscape:
			return OutcomeEscaped, nil
		case n.Abort == keymap.AbortAuto:
			return OutcomeActivated, nil
		case child.Action == keymap.ActionGroup && e.pending.HasReentry():
			// The key that left the group starts another chain.
			return OutcomeActivated, nil
		}

		// Manual chains keep going; show this chain's path again unless a
		// message is still on screen.
		if _, armed := e.feedback.Deadline(); armed {
			continue
		}
		e.feedback.SetText(path)
		popupDue = !e.feedback.Visible()
		if !popupDue {
			if err := e.feedback.Show(); err != nil {
				return OutcomeActivated, err
			}
		}
	}
}

func (e *Engine) noBinding(path string, pressed key.Key) error {
	msg := fmt.Sprintf("%s %s: no binding", path, pressed)
	e.feedback.SetText(msg)
	if err := e.feedback.Show(); err != nil {
		return err
	}
	e.feedback.SetDeadline(e.clock.Now().Add(e.delay))
	e.logger.Debug(" -> %s", msg)
	return nil
}

// escape replays the key of n's chain to the focused window.
// Failures are logged; the chain ends either way.
func (e *Engine) escape(n *keymap.Node) {
	chain := n.Parent()
	if chain == nil || chain.IsRoot() {
		return
	}

	if err := e.session.UngrabKeyboard(); err != nil {
		e.warn("ungrab", err)
	}
	w, err := e.session.FocusedWindow()
	if err == nil {
		e.logger.Debug(" -> sending %s to window 0x%x", chain.Key, uint32(w))
		err = e.session.SendKey(w, chain.Key)
	}
	if err != nil {
		e.warn("send "+chain.Key.String(), err)
	}
	if err := e.session.GrabKeyboard(); err != nil {
		e.warn("grab", err)
	}
}

// warn logs a keyboard failure that does not end the daemon.
func (e *Engine) warn(action string, err error) {
	e.logger.Warn("%v", &ComponentError{Component: "keyboard", Action: action, Err: err})
}

// bound caps a wait at the poll interval when ctx can be canceled.
func (e *Engine) bound(ctx context.Context, wake time.Time) time.Time {
	if ctx.Done() == nil {
		return wake
	}
	return earliest(wake, e.clock.Now().Add(e.poll))
}

func (e *Engine) exec(n *keymap.Node) {
	if n.Argument == "" {
		e.logger.Debug(" -> %s: nothing to run", n.Path())
		return
	}
	if err := e.spawner.Spawn(n.Argument); err != nil {
		e.metrics.RecordSpawnFailure()
		e.logger.Warn("%s: %v", n.Path(), err)
	}
}

// group runs n's command and then every same-named sibling whose key is
// pressed, until some other key arrives. If that key starts a top-level
// chain, a re-entry is queued for it.
func (e *Engine) group(ctx context.Context, n *keymap.Node) (Outcome, error) {
	e.feedback.SetText(n.GroupPath())
	if err := e.feedback.Show(); err != nil {
		return OutcomeActivated, err
	}
	e.exec(n)

	locks := e.session.LockMask()
	for {
		if ctx.Err() != nil {
			e.logger.Debug(" -> %s: canceled", n.GroupPath())
			return OutcomeAborted, nil
		}
		ev, ok, err := e.session.NextEvent(e.bound(ctx, time.Time{}))
		if err != nil {
			return OutcomeActivated, err
		}
		if !ok || ev.IsModifier {
			continue
		}

		if member := n.GroupMember(ev.Key, locks); member != nil {
			e.logger.Debug(" -> %s %s %s", member.Path(), member.Action, member.Argument)
			e.exec(member)
			e.metrics.RecordGroupRepeat()
			continue
		}

		if target := reentryTarget(n.Root(), ev.Key, locks); target != nil {
			e.logger.Debug(" -> %s: re-entering %s", n.GroupPath(), target.Path())
			e.pending.RequestReentry(target)
			e.metrics.RecordReentry()
		}
		return OutcomeActivated, nil
	}
}

// reentryTarget returns the top-level chain started by live, if any.
func reentryTarget(root *keymap.Node, live key.Key, locks key.Modifier) *keymap.Node {
	for _, c := range root.Children() {
		if c.Action == keymap.ActionEnter && key.MatchesLive(c.Key, live, locks) {
			return c
		}
	}
	return nil
}

// earliest returns the earlier of two deadlines; zero means none.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
