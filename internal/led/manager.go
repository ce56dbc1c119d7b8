package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/luffyplayer/internal/events"
)

// StatusLED is the LED the manager drives.
const StatusLED = "act"

// Manager mirrors playback state on the status LED: solid while audio plays,
// heartbeat while the player is idle or paused.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	playing bool
}

// NewManager creates a new LED manager that reacts to playback state changes
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start shows the idle pattern and begins listening for playback events
func (m *Manager) Start() {
	m.apply(false)
	m.unsubscribe = m.eventBus.Subscribe(func(e events.PlaybackStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and hands the LED back to the idle pattern
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.apply(false)
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(event events.PlaybackStateChangedEvent) {
	playing := event.IsPlaying()

	m.mu.Lock()
	changed := playing != m.playing
	m.playing = playing
	m.mu.Unlock()

	m.logger.Debug("Playback state changed", "state", event.State, "track", event.Track)
	if changed {
		m.apply(playing)
	}
}

func (m *Manager) apply(playing bool) {
	pattern := "heartbeat"
	if playing {
		pattern = "solid"
	}
	if err := m.controller.Set(StatusLED, true, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
	}
}

// GetController returns the underlying LED controller for direct API access
func (m *Manager) GetController() Controller {
	return m.controller
}
