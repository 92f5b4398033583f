package process

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("process %q did not exit", p.Command)
	}
}

func TestSpawnRunsShellCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	s := NewSupervisor()

	proc, err := s.Start("echo hello > " + out)
	require.NoError(t, err)
	waitDone(t, proc)
	s.Wait()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, StateExited, proc.State())
	assert.Equal(t, 0, proc.ExitCode())
	assert.Zero(t, s.Count())
}

func TestSpawnDoesNotWait(t *testing.T) {
	s := NewSupervisor()

	start := time.Now()
	proc, err := s.Start("sleep 1")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StateRunning, proc.State())
	assert.Equal(t, 1, s.Count())
	assert.Same(t, proc, s.Get(proc.ID))

	waitDone(t, proc)
	s.Wait()
	assert.Nil(t, s.Get(proc.ID))
}

func TestSpawnRecordsExitCode(t *testing.T) {
	var mu sync.Mutex
	var exited []*Process
	s := NewSupervisor(WithProcessExitCallback(func(p *Process) {
		mu.Lock()
		defer mu.Unlock()
		exited = append(exited, p)
	}))

	proc, err := s.Start("exit 3")
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, 3, proc.ExitCode())
	assert.Error(t, proc.ExitError())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, exited, 1)
	assert.Same(t, proc, exited[0])
}

func TestSpawnDetachesFromSession(t *testing.T) {
	s := NewSupervisor()
	proc, err := s.Start("sleep 0.2")
	require.NoError(t, err)

	sid, err := unix.Getsid(proc.PID())
	require.NoError(t, err)
	own, err := unix.Getsid(0)
	require.NoError(t, err)
	assert.NotEqual(t, own, sid)
	assert.Equal(t, proc.PID(), sid)
	s.Wait()

	require.NotNil(t, proc.Cmd.SysProcAttr)
	assert.True(t, proc.Cmd.SysProcAttr.Setsid)
	assert.Nil(t, proc.Cmd.Stdin)
	assert.Nil(t, proc.Cmd.Stdout)
}

func TestProcessIDsAreUUIDs(t *testing.T) {
	s := NewSupervisor()
	proc, err := s.Start("true")
	require.NoError(t, err)
	s.Wait()

	_, err = uuid.Parse(proc.ID)
	assert.NoError(t, err)
}

func TestSpawnFailsWithMissingShell(t *testing.T) {
	s := NewSupervisor(WithShell("/nonexistent/shell"))
	err := s.Spawn("true")
	assert.Error(t, err)
	assert.Zero(t, s.Count())
}

func TestShutdownRefusesNewSpawns(t *testing.T) {
	s := NewSupervisor()
	proc, err := s.Start("sleep 0.2")
	require.NoError(t, err)

	s.Shutdown()
	assert.True(t, s.IsShuttingDown())
	assert.ErrorIs(t, s.Spawn("true"), ErrSupervisorShutdown)

	// Already running commands are not killed.
	waitDone(t, proc)
	assert.Equal(t, StateExited, proc.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "killed", StateKilled.String())
	assert.Equal(t, "unknown(9)", State(9).String())
}
