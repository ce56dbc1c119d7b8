// Package buttons reports presses of the four front buttons.
package buttons

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Button names a front button.
type Button string

// Buttons in board order.
const (
	A Button = "A"
	B Button = "B"
	X Button = "X"
	Y Button = "Y"
)

// All lists the buttons in the order their pins are configured.
var All = []Button{A, B, X, Y}

// Parse returns the button named s.
func Parse(s string) (Button, error) {
	for _, b := range All {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown button %q", s)
}

// Source delivers button presses until ctx is cancelled, then closes the
// channel.
type Source interface {
	Events(ctx context.Context) <-chan Button
}

// Debouncer drops presses that follow the previous accepted press of the
// same button within the window.
type Debouncer struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[Button]time.Time
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window, now: time.Now, last: make(map[Button]time.Time)}
}

// Accept reports whether a press of b should be delivered.
func (d *Debouncer) Accept(b Button) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.last[b]; ok && now.Sub(last) < d.window {
		return false
	}
	d.last[b] = now
	return true
}

// None is a source that never fires.
type None struct{}

// Events implements Source.
func (None) Events(ctx context.Context) <-chan Button {
	ch := make(chan Button)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
