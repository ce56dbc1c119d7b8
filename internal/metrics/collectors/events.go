package collectors

import (
	"errors"

	"github.com/smazurov/luffyplayer/internal/events"
	"github.com/smazurov/luffyplayer/internal/metrics"
)

// EventCollector mirrors player events into metrics.
type EventCollector struct {
	bus    *events.Bus
	unsubs []func()
}

// NewEventCollector creates a collector bound to bus.
func NewEventCollector(bus *events.Bus) *EventCollector {
	return &EventCollector{bus: bus}
}

// Start subscribes to the bus.
func (c *EventCollector) Start() {
	c.unsubs = append(c.unsubs,
		c.bus.Subscribe(func(e events.PlaybackStateChangedEvent) {
			metrics.SetPlaying(e.IsPlaying())
		}),
		c.bus.Subscribe(func(e events.VolumeChangedEvent) {
			metrics.SetVolume(e.Volume)
		}),
		c.bus.Subscribe(func(e events.TrackChangedEvent) {
			metrics.RecordTrackChange(e.Index, e.Reason)
		}),
		c.bus.Subscribe(func(e events.ButtonPressedEvent) {
			metrics.RecordButtonPress(e.Button)
		}),
		c.bus.Subscribe(func(e events.LibraryRescannedEvent) {
			var err error
			if e.Error != "" {
				err = errors.New(e.Error)
			}
			metrics.RecordLibraryScan(e.Tracks, err)
		}),
	)
}

// Stop unsubscribes from the bus.
func (c *EventCollector) Stop() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}
