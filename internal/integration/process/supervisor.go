package process

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"

	"github.com/dshills/xchainkeys/internal/logging"
)

// ErrSupervisorShutdown is returned by Spawn after Shutdown.
var ErrSupervisorShutdown = errors.New("supervisor is shutting down")

// Supervisor spawns and reaps shell commands. It is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process
	wg        sync.WaitGroup

	closed atomic.Bool

	shell  string
	logger *logging.Logger

	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithShell sets the shell used to run command lines. Default "sh".
func WithShell(shell string) SupervisorOption {
	return func(s *Supervisor) {
		s.shell = shell
	}
}

// WithLogger logs spawns and exits at debug level.
func WithLogger(l *logging.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// WithProcessExitCallback registers fn to run after every reaped command.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor returns a supervisor that runs commands through "sh".
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		shell:     "sh",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn runs command through the shell and returns without waiting.
func (s *Supervisor) Spawn(command string) error {
	_, err := s.Start(command)
	return err
}

// Start is Spawn, returning the tracked process.
func (s *Supervisor) Start(command string) (*Process, error) {
	cmd := exec.Command(s.shell, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}

	proc := newProcess(uuid.NewString(), command, cmd)
	if err := proc.start(); err != nil {
		return nil, err
	}
	s.processes[proc.ID] = proc
	s.logger.Debug("spawned %q pid=%d id=%s", command, proc.PID(), proc.ID)

	s.wg.Add(1)
	go s.monitor(proc)
	return proc, nil
}

func (s *Supervisor) monitor(proc *Process) {
	defer s.wg.Done()
	<-proc.Done()

	s.logger.Debug("%q exited with status %d after %s id=%s",
		proc.Command, proc.ExitCode(), proc.Runtime().Round(1e6), proc.ID)

	if s.onProcessExit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("process exit callback: %v", r)
				}
			}()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns a running process by ID, or nil.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// Count returns the number of running processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Shutdown stops new spawns. Running commands are left running.
func (s *Supervisor) Shutdown() {
	s.closed.Store(true)
}

// IsShuttingDown returns true after Shutdown.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}

// Wait blocks until every spawned process has exited and been reaped.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// String describes the supervisor for logs.
func (s *Supervisor) String() string {
	return fmt.Sprintf("supervisor(shell=%s, running=%d)", s.shell, s.Count())
}
