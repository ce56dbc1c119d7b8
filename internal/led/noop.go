package led

import "log/slog"

// noop stands in on boards without a known status LED. Requests are logged
// and succeed so the LED manager needs no special case.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop { return &noop{logger: logger} }

func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	n.logger.Debug("No status LED on this board", "led", ledType, "enabled", enabled, "pattern", pattern)
	return nil
}

func (n *noop) Available() []string { return []string{} }
func (n *noop) Patterns() []string  { return []string{} }
