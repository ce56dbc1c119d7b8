package process

import "time"

// State is where a supervised process is in its lifecycle.
type State string

// Supervisor states. A crashed process sits in StateError for the backoff
// delay, then moves through StateStarting back to StateRunning.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateError    State = "error"
)

// Alive reports whether a process exists in this state.
func (s State) Alive() bool { return s == StateRunning }

// Info is a Supervisor snapshot. LastError is the most recent crash and
// survives a successful restart.
type Info struct {
	ID           string
	State        State
	PID          int
	StartedAt    time.Time
	Uptime       time.Duration
	RestartCount int
	LastError    error
}
