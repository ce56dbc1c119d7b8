package process

import (
	"time"

	"github.com/smazurov/luffyplayer/internal/logging"
)

// StateChangeCallback is called when the supervised process changes state.
type StateChangeCallback func(id string, oldState, newState State, err error)

// Configurer configures each Process before it starts.
// Used for domain-specific setup (e.g., log parser, output handler).
type Configurer func(id string, proc *Process)

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	// OnStateChange is called on every state transition (optional).
	OnStateChange StateChangeCallback

	// ConfigureProcess customizes each Process before start (optional).
	ConfigureProcess Configurer

	// RestartDelay is the first delay after a crash; it doubles up to
	// MaxRestartDelay. Defaults are 1s and 30s.
	RestartDelay    time.Duration
	MaxRestartDelay time.Duration

	// Logger for supervisor operations (required).
	Logger logging.Logger
}
