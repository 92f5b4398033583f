package process

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// State is where a spawned command is in its life.
type State int

const (
	// StateCreated is a command that has not been started.
	StateCreated State = iota
	// StateRunning is a started command that has not been reaped.
	StateRunning
	// StateExited is a command that ended on its own, with any status.
	StateExited
	// StateKilled is a command that a signal ended.
	StateKilled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Process is one spawned command.
type Process struct {
	// ID is a uuid that tags the command in log lines.
	ID string

	// Command is the shell command line.
	Command string

	// Cmd runs the shell.
	Cmd *exec.Cmd

	// Started is when Cmd.Start returned.
	Started time.Time

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu      sync.RWMutex
	exitErr error
	ended   time.Time
}

func newProcess(id, command string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:      id,
		Command: command,
		Cmd:     cmd,
		done:    make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

// State returns where the command is now.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the process exit code, or -1 if it has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns the error from waiting on the process, if any.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done is closed once the command has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// PID returns the child pid, or -1 before start.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Runtime returns how long the process ran, or has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ended.IsZero() {
		return p.ended.Sub(p.Started)
	}
	return time.Since(p.Started)
}

func (p *Process) start() error {
	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}
	if err := p.Cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", p.Command, err)
	}
	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.wait()
	return nil
}

// wait reaps the process and records how it ended.
func (p *Process) wait() {
	err := p.Cmd.Wait()

	exitCode := 0
	state := StateExited
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				state = StateKilled
			}
		} else {
			exitCode = -1
		}
	}

	p.mu.Lock()
	p.exitErr = err
	p.ended = time.Now()
	p.mu.Unlock()

	p.exitCode.Store(int32(exitCode))
	p.state.Store(int32(state))
	close(p.done)
}

// ErrProcessAlreadyStarted is returned when a process is started twice.
var ErrProcessAlreadyStarted = errors.New("process already started")
