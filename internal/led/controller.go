package led

// Controller abstracts the board LEDs.
type Controller interface {
	// Set switches an LED on or off and optionally applies a pattern
	// ("solid", "blink", "heartbeat" or a raw trigger name). An empty
	// pattern leaves the current trigger alone.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this board exposes.
	Available() []string

	// Patterns returns the patterns Set understands.
	Patterns() []string
}
