package buttons

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// edgePoll bounds how long a pin goroutine waits before checking ctx.
const edgePoll = 200 * time.Millisecond

type edgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Halt() error
	Name() string
}

// GPIO reads buttons wired active-low with the internal pull-ups enabled.
type GPIO struct {
	pins     map[Button]edgePin
	debounce *Debouncer
	logger   *slog.Logger
}

// OpenGPIO configures pinNames (in A, B, X, Y order) for falling-edge
// detection.
func OpenGPIO(pinNames []string, debounce time.Duration, logger *slog.Logger) (*GPIO, error) {
	if len(pinNames) != len(All) {
		return nil, fmt.Errorf("need %d button pins, got %d", len(All), len(pinNames))
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	pins := make(map[Button]edgePin, len(All))
	for i, name := range pinNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown gpio %s for button %s", name, All[i])
		}
		pins[All[i]] = p
	}
	return newGPIO(pins, debounce, logger)
}

func newGPIO(pins map[Button]edgePin, debounce time.Duration, logger *slog.Logger) (*GPIO, error) {
	for b, p := range pins {
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("configure %s for button %s: %w", p.Name(), b, err)
		}
		logger.Debug("Button configured", "button", b, "pin", p.Name())
	}
	return &GPIO{pins: pins, debounce: NewDebouncer(debounce), logger: logger}, nil
}

// Events implements Source.
func (g *GPIO) Events(ctx context.Context) <-chan Button {
	out := make(chan Button, len(g.pins))
	var wg sync.WaitGroup

	for b, p := range g.pins {
		wg.Add(1)
		go func(b Button, p edgePin) {
			defer wg.Done()
			g.watch(ctx, b, p, out)
		}(b, p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (g *GPIO) watch(ctx context.Context, b Button, p edgePin, out chan<- Button) {
	for ctx.Err() == nil {
		if !p.WaitForEdge(edgePoll) {
			continue
		}
		if !g.debounce.Accept(b) {
			continue
		}
		g.logger.Debug("Button pressed", "button", b, "pin", p.Name())
		select {
		case out <- b:
		case <-ctx.Done():
			return
		}
	}
}

// Close releases edge detection on every pin.
func (g *GPIO) Close() error {
	var firstErr error
	for _, p := range g.pins {
		if err := p.Halt(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
