// Package process provides subprocess lifecycle management.
//
// Process wraps os/exec for a single run:
//   - Graceful shutdown with SIGINT when the context is cancelled
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming with pluggable log parsing
//
// Supervisor keeps one process alive:
//   - Restart with exponential backoff after a crash
//   - State tracking (idle, starting, running, error)
//   - Callback hooks for state changes and per-run configuration
//
// Example:
//
//	sup := process.NewSupervisor("mpv", []string{"mpv", "--idle"}, process.SupervisorOptions{
//	    Logger: logging.GetLogger("engine"),
//	    OnStateChange: func(id string, old, new process.State, err error) {
//	        log.Printf("%s: %s -> %s", id, old, new)
//	    },
//	})
//	go sup.Run(ctx)
package process
