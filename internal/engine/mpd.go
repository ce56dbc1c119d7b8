package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

// MPDConfig configures the MPD backend.
type MPDConfig struct {
	// Address is host:port, or a unix socket path.
	Address  string
	Password string
	// MusicDir is MPD's music_directory; tracks are added relative to it.
	MusicDir string
}

// MPD plays tracks through a running Music Player Daemon.
type MPD struct {
	cfg    MPDConfig
	logger *slog.Logger
	onEnd  MediaEndFunc

	mu      sync.Mutex
	client  *mpd.Client
	loaded  bool
	watcher *mpd.Watcher
	done    chan struct{}
}

// NewMPD connects to MPD and starts watching the player subsystem.
func NewMPD(_ context.Context, cfg MPDConfig, onEnd MediaEndFunc, logger *slog.Logger) (*MPD, error) {
	m := &MPD{cfg: cfg, logger: logger, onEnd: onEnd, done: make(chan struct{})}

	client, err := m.dial()
	if err != nil {
		return nil, err
	}
	m.client = client

	network, addr := mpdNetwork(cfg.Address)
	w, err := mpd.NewWatcher(network, addr, cfg.Password, "player")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("mpd watcher: %w", err)
	}
	m.watcher = w
	go m.watch()

	logger.Info("mpd engine ready", "address", cfg.Address)
	return m, nil
}

func mpdNetwork(address string) (string, string) {
	if strings.HasPrefix(address, "/") {
		return "unix", address
	}
	return "tcp", address
}

func (m *MPD) dial() (*mpd.Client, error) {
	network, addr := mpdNetwork(m.cfg.Address)
	var (
		c   *mpd.Client
		err error
	)
	if m.cfg.Password != "" {
		c, err = mpd.DialAuthenticated(network, addr, m.cfg.Password)
	} else {
		c, err = mpd.Dial(network, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to mpd at %s: %w", m.cfg.Address, err)
	}
	return c, nil
}

// do runs fn with the client, redialing once if the connection went stale.
// Caller must hold m.mu.
func (m *MPD) do(fn func(c *mpd.Client) error) error {
	if m.client != nil {
		if err := m.client.Ping(); err == nil {
			return fn(m.client)
		}
		m.client.Close()
		m.client = nil
	}

	c, err := m.dial()
	if err != nil {
		return err
	}
	m.client = c
	return fn(c)
}

// uri converts an absolute path into an MPD URI relative to the music dir.
func (m *MPD) uri(path string) (string, error) {
	if m.cfg.MusicDir == "" || !filepath.IsAbs(path) {
		return path, nil
	}
	rel, err := filepath.Rel(m.cfg.MusicDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the mpd music directory %s", path, m.cfg.MusicDir)
	}
	return filepath.ToSlash(rel), nil
}

// Load implements Engine.
func (m *MPD) Load(_ context.Context, path string, volume int) error {
	uri, err := m.uri(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = false
	err = m.do(func(c *mpd.Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Add(uri); err != nil {
			return err
		}
		if err := c.SetVolume(clampVolume(volume)); err != nil {
			m.logger.Warn("mpd volume not set", "error", err)
		}
		return c.Play(0)
	})
	if err != nil {
		return fmt.Errorf("mpd load %s: %w", uri, err)
	}
	m.loaded = true
	return nil
}

func (m *MPD) setPause(pause bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	return m.do(func(c *mpd.Client) error { return c.Pause(pause) })
}

// Pause implements Engine.
func (m *MPD) Pause(context.Context) error {
	return m.setPause(true)
}

// Resume implements Engine.
func (m *MPD) Resume(context.Context) error {
	return m.setPause(false)
}

// Stop implements Engine.
func (m *MPD) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	return m.do(func(c *mpd.Client) error { return c.Stop() })
}

// SetVolume implements Engine.
func (m *MPD) SetVolume(_ context.Context, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.do(func(c *mpd.Client) error { return c.SetVolume(clampVolume(volume)) })
}

// Position implements Engine.
func (m *MPD) Position(context.Context) (time.Duration, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return 0, 0, ErrNotLoaded
	}

	var attrs mpd.Attrs
	err := m.do(func(c *mpd.Client) error {
		var err error
		attrs, err = c.Status()
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return seconds(parseSeconds(attrs["elapsed"])), seconds(parseSeconds(attrs["duration"])), nil
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// watch reports end of track: a stop that the engine did not ask for while
// media is loaded. Load and Stop hold m.mu for their whole command sequence,
// so the state read here never sees their intermediate stops.
func (m *MPD) watch() {
	defer close(m.done)
	for {
		select {
		case subsystem, ok := <-m.watcher.Event:
			if !ok {
				return
			}
			if subsystem == "player" && m.checkEnded() && m.onEnd != nil {
				m.onEnd()
			}
		case err, ok := <-m.watcher.Error:
			if !ok {
				return
			}
			m.logger.Warn("mpd watcher error", "error", err)
		}
	}
}

func (m *MPD) checkEnded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return false
	}

	var attrs mpd.Attrs
	err := m.do(func(c *mpd.Client) error {
		var err error
		attrs, err = c.Status()
		return err
	})
	if err != nil {
		m.logger.Warn("mpd status failed", "error", err)
		return false
	}
	if attrs["state"] != "stop" {
		return false
	}
	m.loaded = false
	return true
}

// Close implements Engine.
func (m *MPD) Close() error {
	err := m.watcher.Close()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		if cerr := m.client.Close(); err == nil {
			err = cerr
		}
		m.client = nil
	}
	return err
}
