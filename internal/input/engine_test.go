package input_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/xchainkeys/internal/config"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
	"github.com/dshills/xchainkeys/internal/logging"
	"github.com/dshills/xchainkeys/internal/testutil"
)

const delay = time.Second

type harness struct {
	root     *keymap.Node
	clock    *testutil.Clock
	session  *testutil.Session
	feedback *testutil.Feedback
	spawner  *testutil.Spawner
	pending  *input.Pending
	engine   *input.Engine
}

func newHarness(t *testing.T, lines ...string) *harness {
	t.Helper()
	res, err := config.NewCompiler(key.Keysyms).Compile(nil, strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	h := &harness{
		root:     res.Root,
		clock:    testutil.NewClock(),
		feedback: &testutil.Feedback{},
		spawner:  &testutil.Spawner{},
		pending:  &input.Pending{},
	}
	h.session = testutil.NewSession(h.clock)
	h.engine = input.NewEngine(input.EngineConfig{
		Session:  h.session,
		Feedback: h.feedback,
		Spawner:  h.spawner,
		Pending:  h.pending,
		Delay:    delay,
		Clock:    h.clock,
	})
	return h
}

func (h *harness) node(t *testing.T, specs ...string) *keymap.Node {
	t.Helper()
	n := h.root
	for _, s := range specs {
		n = n.ChildByKey(testutil.Key(s))
		require.NotNil(t, n, "no binding %v", specs)
	}
	return n
}

func (h *harness) run(t *testing.T, chain string, steps ...testutil.Step) input.Outcome {
	t.Helper()
	h.session.Queue(steps...)
	out, err := h.engine.Activate(context.Background(), h.node(t, chain))
	require.NoError(t, err)
	return out
}

func TestEnterExec(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	out := h.run(t, "C-t", testutil.Press("c", 10*time.Millisecond))

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
	grabs, ungrabs := h.session.Grabs()
	assert.Equal(t, 1, grabs)
	assert.Equal(t, 1, ungrabs)
	assert.False(t, h.session.Grabbed())
	assert.False(t, h.feedback.Visible())
}

func TestExtendedPrefixRunsOnlyTheDeeperCommand(t *testing.T) {
	h := newHarness(t,
		`a :exec "echo hi"`,
		`a b :exec "echo bye"`,
	)

	out := h.run(t, "a", testutil.Press("b", 0))

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"echo bye"}, h.spawner.Commands())
}

func TestTimeoutReleasesGrab(t *testing.T) {
	h := newHarness(t,
		"C-t :enter timeout=50",
		"C-t c :exec xterm",
	)
	start := h.clock.Now()

	out := h.run(t, "C-t")

	assert.Equal(t, input.OutcomeTimedOut, out)
	assert.Equal(t, 50*time.Millisecond, h.clock.Now().Sub(start))
	assert.Empty(t, h.spawner.Commands())
	assert.False(t, h.session.Grabbed())
	grabs, ungrabs := h.session.Grabs()
	assert.Equal(t, 1, grabs)
	assert.Equal(t, 1, ungrabs)
}

func TestKeyAfterTimeoutIsNotConsumed(t *testing.T) {
	h := newHarness(t,
		"C-t :enter timeout=50",
		"C-t c :exec xterm",
	)

	out := h.run(t, "C-t", testutil.Press("c", 60*time.Millisecond))

	assert.Equal(t, input.OutcomeTimedOut, out)
	assert.Empty(t, h.spawner.Commands())
	assert.Equal(t, 1, h.session.Remaining())
}

func TestZeroTimeoutWaitsForever(t *testing.T) {
	h := newHarness(t,
		"C-t :enter timeout=0",
		"C-t c :exec xterm",
	)

	out := h.run(t, "C-t", testutil.Press("c", time.Hour))

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
}

func TestPopupAppearsAfterDelay(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	h.run(t, "C-t", testutil.Press("c", 1500*time.Millisecond))

	assert.Equal(t, []string{"C-t"}, h.feedback.Shown())
	assert.False(t, h.feedback.Visible(), "hidden when the chain ends")
}

func TestPopupNotShownForFastChains(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	h.run(t, "C-t", testutil.Press("c", 100*time.Millisecond))

	assert.Empty(t, h.feedback.Shown())
}

func TestNestedChainShowsVisiblePopupImmediately(t *testing.T) {
	h := newHarness(t, "C-t w n :exec next")

	h.run(t, "C-t",
		testutil.Press("w", 1500*time.Millisecond),
		testutil.Press("n", 10*time.Millisecond),
	)

	assert.Equal(t, []string{"C-t", "C-t w"}, h.feedback.Shown())
	assert.Equal(t, []string{"next"}, h.spawner.Commands())
}

func TestModifierPressesAreIgnored(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	out := h.run(t, "C-t",
		testutil.Modifier("Shift_L", 0),
		testutil.Modifier("Control_L", 0),
		testutil.Press("c", 0),
	)

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
}

func TestLockKeysDoNotDefeatBindings(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	live := testutil.Key("c").WithModifiers(key.Mod2 | key.ModLock)
	out := h.run(t, "C-t", testutil.PressKey(live, 0))

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
}

func TestNoBindingEndsAutoChain(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	out := h.run(t, "C-t", testutil.Press("x", 0))

	assert.Equal(t, input.OutcomeUnbound, out)
	assert.Empty(t, h.spawner.Commands())
	assert.Equal(t, "C-t x: no binding", h.feedback.Text())
	assert.True(t, h.feedback.Visible(), "message stays up until its own timeout")

	at, armed := h.feedback.Deadline()
	require.True(t, armed)
	assert.Equal(t, h.clock.Now().Add(delay), at)
	assert.False(t, h.session.Grabbed())
}

func TestNoBindingKeepsManualChain(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual",
		"C-t c :exec xterm",
	)

	out := h.run(t, "C-t",
		testutil.Press("x", 0),
		testutil.Press("c", 0),
		testutil.Press("c", 0),
		testutil.Press("C-g", 0),
	)

	assert.Equal(t, input.OutcomeAborted, out)
	assert.Equal(t, []string{"xterm", "xterm"}, h.spawner.Commands())
	assert.Zero(t, h.session.Remaining())
}

func TestManualChainRestoresPathWhenMessageExpires(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual timeout=0",
		"C-t c :exec xterm",
	)

	h.run(t, "C-t",
		testutil.Press("x", 0),
		testutil.Press("C-g", 3*delay),
	)

	shown := h.feedback.Shown()
	require.Len(t, shown, 2)
	assert.Equal(t, "C-t x: no binding", shown[0])
	assert.Equal(t, "C-t", shown[1])
}

func TestAbort(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")

	out := h.run(t, "C-t", testutil.Press("C-g", 0))

	assert.Equal(t, input.OutcomeAborted, out)
	assert.Empty(t, h.spawner.Commands())
	assert.False(t, h.session.Grabbed())
}

func TestEscapeSendsChainKeyToFocusedWindow(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")
	h.session.Focus = 0x42

	out := h.run(t, "C-t", testutil.Press("C-t", 0))

	assert.Equal(t, input.OutcomeEscaped, out)
	sent := h.session.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, input.Window(0x42), sent[0].Window)
	assert.True(t, sent[0].Key.Equals(testutil.Key("C-t")))
	assert.Equal(t, []string{"grab", "ungrab", "send C-t", "grab", "ungrab"}, h.session.Log())
}

func TestEscapeAlwaysEndsManualChain(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual",
		"C-t c :exec xterm",
	)

	out := h.run(t, "C-t",
		testutil.Press("c", 0),
		testutil.Press("C-t", 0),
		testutil.Press("c", 0),
	)

	assert.Equal(t, input.OutcomeEscaped, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
	assert.Equal(t, 1, h.session.Remaining())
}

func TestEscapeInNestedChainSendsNestedKey(t *testing.T) {
	h := newHarness(t, "C-t w n :exec next")

	out := h.run(t, "C-t",
		testutil.Press("w", 0),
		testutil.Press("w", 0),
	)

	assert.Equal(t, input.OutcomeActivated, out)
	sent := h.session.Sent()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Key.Equals(testutil.Key("w")))
	assert.False(t, h.session.Grabbed())
}

func TestNestedChainDoesNotGrab(t *testing.T) {
	h := newHarness(t, "C-t w n :exec next")

	h.run(t, "C-t",
		testutil.Press("w", 0),
		testutil.Press("n", 0),
	)

	grabs, ungrabs := h.session.Grabs()
	assert.Equal(t, 1, grabs)
	assert.Equal(t, 1, ungrabs)
}

func TestNestedChainTimeout(t *testing.T) {
	h := newHarness(t,
		"C-t w :enter timeout=100",
		"C-t w n :exec next",
	)

	out := h.run(t, "C-t", testutil.Press("w", 0))

	// The nested frame times out, and the auto parent ends with it.
	assert.Equal(t, input.OutcomeActivated, out)
	assert.Empty(t, h.spawner.Commands())
	assert.False(t, h.session.Grabbed())
}

func TestLoadQueuesReload(t *testing.T) {
	h := newHarness(t, "C-t r :load /tmp/other.conf")

	out := h.run(t, "C-t", testutil.Press("r", 0))

	assert.Equal(t, input.OutcomeActivated, out)
	path, ok := h.pending.TakeReload()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/other.conf", path)
}

var groupConfig = []string{
	"C-t :enter",
	`C-t plus :group "vol" vol up`,
	`C-t minus :group "vol" vol down`,
	`C-t b :group "light" bright`,
	"C-x c :exec xterm",
}

func TestGroupRepeatsAndReenters(t *testing.T) {
	h := newHarness(t, groupConfig...)

	out := h.run(t, "C-t",
		testutil.Press("plus", 0),
		testutil.Press("plus", 0),
		testutil.Press("minus", 0),
		testutil.Press("C-x", 0),
	)

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"vol up", "vol up", "vol down"}, h.spawner.Commands())
	assert.Contains(t, h.feedback.Shown(), "C-t (vol)")

	target := h.pending.TakeReentry()
	require.NotNil(t, target)
	assert.Same(t, h.node(t, "C-x"), target)
}

func TestGroupExitWithoutReentry(t *testing.T) {
	h := newHarness(t, groupConfig...)

	h.run(t, "C-t",
		testutil.Press("plus", 0),
		testutil.Press("b", 0),
	)

	assert.Equal(t, []string{"vol up"}, h.spawner.Commands(), "other group names do not repeat")
	assert.Nil(t, h.pending.TakeReentry())
}

func TestGroupReentryEndsManualChain(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual",
		`C-t plus :group "vol" vol up`,
		"C-x c :exec xterm",
	)

	out := h.run(t, "C-t",
		testutil.Press("plus", 0),
		testutil.Press("C-x", 0),
		testutil.Press("c", 0),
	)

	assert.Equal(t, input.OutcomeActivated, out)
	assert.NotNil(t, h.pending.TakeReentry())
	assert.Equal(t, 1, h.session.Remaining())
}

func TestGroupInManualChainContinuesAfterExit(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual",
		`C-t plus :group "vol" vol up`,
		"C-t c :exec xterm",
	)

	out := h.run(t, "C-t",
		testutil.Press("plus", 0),
		testutil.Press("q", 0),
		testutil.Press("c", 0),
		testutil.Press("C-g", 0),
	)

	// q leaves the group without a re-entry; the manual chain keeps going.
	assert.Equal(t, input.OutcomeAborted, out)
	assert.Equal(t, []string{"vol up", "xterm"}, h.spawner.Commands())
}

func TestSpawnFailureDoesNotEndChain(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")
	h.spawner.Err = errors.New("no such file")

	out := h.run(t, "C-t", testutil.Press("c", 0))

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, uint64(1), h.engine.Metrics().Snapshot().SpawnFailures)
}

func TestSessionErrorReleasesGrab(t *testing.T) {
	h := newHarness(t,
		"C-t :enter timeout=0",
		"C-t c :exec xterm",
	)

	_, err := h.engine.Activate(context.Background(), h.node(t, "C-t"))

	require.ErrorIs(t, err, testutil.ErrScriptDone)
	assert.False(t, h.session.Grabbed())
}

func TestGrabFailureEndsChainQuietly(t *testing.T) {
	h := newHarness(t, "C-t c :exec xterm")
	h.session.GrabErr = errors.New("AlreadyGrabbed")
	var logs bytes.Buffer
	h.engine = input.NewEngine(input.EngineConfig{
		Session:  h.session,
		Feedback: h.feedback,
		Spawner:  h.spawner,
		Pending:  h.pending,
		Delay:    delay,
		Clock:    h.clock,
		Logger:   logging.New(logging.Config{Level: logging.LevelWarn, Output: &logs}),
	})

	out := h.run(t, "C-t", testutil.Press("c", 0))

	assert.Equal(t, input.OutcomeAborted, out)
	assert.Empty(t, h.spawner.Commands())
	assert.Equal(t, 1, h.session.Remaining())
	assert.False(t, h.feedback.Visible())
	assert.Contains(t, logs.String(), "keyboard: grab: AlreadyGrabbed")
	assert.Equal(t, uint64(1), h.engine.Metrics().Snapshot().Aborts)
}

func TestEscapeFailureStillEndsChain(t *testing.T) {
	h := newHarness(t,
		"C-t :enter abort=manual",
		"C-t c :exec xterm",
	)
	h.session.SendErr = errors.New("BadWindow")

	out := h.run(t, "C-t", testutil.Press("C-t", 0), testutil.Press("c", 0))

	assert.Equal(t, input.OutcomeEscaped, out)
	assert.Empty(t, h.session.Sent())
	assert.Empty(t, h.spawner.Commands())
	assert.False(t, h.session.Grabbed())
}

// cancelingSession cancels its context once the script is used up.
type cancelingSession struct {
	*testutil.Session
	cancel context.CancelFunc
}

func (s *cancelingSession) NextEvent(deadline time.Time) (key.Event, bool, error) {
	if s.Remaining() == 0 {
		s.cancel()
	}
	return s.Session.NextEvent(deadline)
}

func newCancelingHarness(t *testing.T, lines ...string) (*harness, context.Context) {
	t.Helper()
	h := newHarness(t, lines...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.engine = input.NewEngine(input.EngineConfig{
		Session:  &cancelingSession{Session: h.session, cancel: cancel},
		Feedback: h.feedback,
		Spawner:  h.spawner,
		Pending:  h.pending,
		Delay:    delay,
		Clock:    h.clock,
	})
	return h, ctx
}

func TestCancelEndsChainWithoutTimeout(t *testing.T) {
	h, ctx := newCancelingHarness(t,
		"C-t :enter timeout=0",
		"C-t c :exec xterm",
	)

	out, err := h.engine.Activate(ctx, h.node(t, "C-t"))

	require.NoError(t, err)
	assert.Equal(t, input.OutcomeAborted, out)
	assert.False(t, h.session.Grabbed())
	assert.False(t, h.feedback.Visible())
}

func TestCancelEndsGroupLoop(t *testing.T) {
	h, ctx := newCancelingHarness(t, groupConfig...)
	h.session.Queue(testutil.Press("plus", 0), testutil.Press("plus", 0))

	out, err := h.engine.Activate(ctx, h.node(t, "C-t"))

	require.NoError(t, err)
	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"vol up", "vol up"}, h.spawner.Commands())
	assert.False(t, h.session.Grabbed())
	assert.False(t, h.pending.HasReentry())
}

func TestTopLevelExec(t *testing.T) {
	h := newHarness(t, "F12 :exec xterm")

	out := h.run(t, "F12")

	assert.Equal(t, input.OutcomeActivated, out)
	assert.Equal(t, []string{"xterm"}, h.spawner.Commands())
	grabs, _ := h.session.Grabs()
	assert.Zero(t, grabs)
}

func TestMetrics(t *testing.T) {
	h := newHarness(t, groupConfig...)

	h.run(t, "C-t", testutil.Press("C-g", 0))
	h.run(t, "C-t", testutil.Press("q", 0))
	h.run(t, "C-t",
		testutil.Press("plus", 0),
		testutil.Press("plus", 0),
		testutil.Press("C-x", 0),
	)

	snap := h.engine.Metrics().Snapshot()
	assert.Equal(t, uint64(3), snap.ChainsEntered)
	assert.Equal(t, uint64(1), snap.Aborts)
	assert.Equal(t, uint64(1), snap.Unbound)
	assert.Equal(t, uint64(1), snap.Activations)
	assert.Equal(t, uint64(1), snap.GroupRepeats)
	assert.Equal(t, uint64(1), snap.Reentries)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "timed out", input.OutcomeTimedOut.String())
	assert.Equal(t, "no binding", input.OutcomeUnbound.String())
	assert.Equal(t, "Outcome(9)", input.Outcome(9).String())
}

func TestShowKeys(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewSession(clock,
		testutil.Press("a", 0),
		testutil.Modifier("Shift_L", 0),
		testutil.Press("C-A-x", 0),
		testutil.PressKey(testutil.Key("C-c").WithModifiers(key.ModControl|key.Mod2), 0),
		testutil.Press("b", 0),
	)

	var out bytes.Buffer
	require.NoError(t, input.ShowKeys(s, testutil.Key("C-c"), &out))

	assert.Equal(t, "a\nC-A-x\n", out.String())
	assert.Equal(t, 1, s.Remaining())
	assert.False(t, s.Grabbed())
}

func TestPending(t *testing.T) {
	var p input.Pending
	n := keymap.NewNode(testutil.Key("a"))

	assert.False(t, p.HasReentry())
	p.RequestReentry(n)
	assert.True(t, p.HasReentry())
	assert.Same(t, n, p.TakeReentry())
	assert.Nil(t, p.TakeReentry())

	p.RequestReload("")
	p.RequestReload("/new.conf")
	p.RequestReload("")
	assert.True(t, p.ReloadRequested())
	path, ok := p.TakeReload()
	assert.True(t, ok)
	assert.Equal(t, "/new.conf", path)

	_, ok = p.TakeReload()
	assert.False(t, ok)

	p.RequestReentry(n)
	p.RequestReload("x")
	p.Reset()
	assert.False(t, p.HasReentry())
	assert.False(t, p.ReloadRequested())
}
