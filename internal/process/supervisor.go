package process

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Supervisor keeps one subprocess running, restarting it with exponential
// backoff whenever it exits before the context is cancelled.
type Supervisor struct {
	id   string
	args []string
	opts SupervisorOptions

	mu           sync.RWMutex
	state        State
	proc         *Process
	startedAt    time.Time
	restartCount int
	lastError    error
}

// NewSupervisor creates a supervisor for args.
func NewSupervisor(id string, args []string, opts SupervisorOptions) *Supervisor {
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = time.Second
	}
	if opts.MaxRestartDelay < opts.RestartDelay {
		opts.MaxRestartDelay = 30 * time.Second
	}
	return &Supervisor{
		id:    id,
		args:  append([]string(nil), args...),
		opts:  opts,
		state: StateIdle,
	}
}

// Run blocks until ctx is cancelled, keeping the process alive.
func (s *Supervisor) Run(ctx context.Context) {
	delay := s.opts.RestartDelay

	for {
		proc := New(s.id, s.args, s.opts.Logger)
		if s.opts.ConfigureProcess != nil {
			s.opts.ConfigureProcess(s.id, proc)
		}

		s.mu.Lock()
		s.proc = proc
		s.startedAt = time.Now()
		s.mu.Unlock()
		s.setState(StateRunning, nil)

		started := time.Now()
		exitCode := proc.Run(ctx)

		if ctx.Err() != nil {
			s.setState(StateIdle, nil)
			return
		}

		err := fmt.Errorf("process exited with code %d", exitCode)
		s.mu.Lock()
		s.restartCount++
		s.mu.Unlock()
		s.setState(StateError, err)
		s.opts.Logger.Error("Process crashed", "id", s.id, "exit_code", exitCode, "restart_in", delay)

		// A process that ran for a while earns a fresh backoff.
		if time.Since(started) > s.opts.MaxRestartDelay {
			delay = s.opts.RestartDelay
		}

		select {
		case <-ctx.Done():
			s.setState(StateIdle, nil)
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.opts.MaxRestartDelay {
			delay = s.opts.MaxRestartDelay
		}
		s.setState(StateStarting, nil)
	}
}

func (s *Supervisor) setState(state State, err error) {
	s.mu.Lock()
	old := s.state
	s.state = state
	if err != nil {
		s.lastError = err
	}
	s.mu.Unlock()

	if old != state && s.opts.OnStateChange != nil {
		s.opts.OnStateChange(s.id, old, state, err)
	}
}

// Status returns a snapshot of the supervised process.
func (s *Supervisor) Status() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		ID:           s.id,
		State:        s.state,
		StartedAt:    s.startedAt,
		RestartCount: s.restartCount,
		LastError:    s.lastError,
	}
	if s.proc != nil && s.state.Alive() {
		info.PID = s.proc.PID()
		info.Uptime = time.Since(s.startedAt)
	}
	return info
}
