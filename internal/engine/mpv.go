package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/luffyplayer/internal/logging"
	"github.com/smazurov/luffyplayer/internal/metrics"
	"github.com/smazurov/luffyplayer/internal/process"
)

// MPVConfig configures the mpv backend.
type MPVConfig struct {
	// Path is the mpv command, optionally with extra arguments.
	Path        string
	Socket      string
	AudioDevice string
}

// MPV drives a long-lived `mpv --idle` process over JSON IPC.
type MPV struct {
	ipc    *ipcClient
	logger *slog.Logger
	onEnd  MediaEndFunc

	mu     sync.Mutex
	loaded bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMPV starts mpv under a supervisor and waits for its IPC socket.
func NewMPV(ctx context.Context, cfg MPVConfig, onEnd MediaEndFunc, logger *slog.Logger) (*MPV, error) {
	args, err := mpvArgs(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.Remove(cfg.Socket); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale mpv socket: %w", err)
	}

	m := newMPVClient(cfg.Socket, onEnd, logger)

	supCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	sup := process.NewSupervisor("mpv", args, process.SupervisorOptions{
		Logger: logger,
		ConfigureProcess: func(_ string, p *process.Process) {
			p.SetLogParser(logging.GetLogger("mpv"), parseMPVLogLine)
		},
		OnStateChange: func(_ string, _, newState process.State, _ error) {
			if newState == process.StateError {
				metrics.RecordEngineRestart()
				m.mu.Lock()
				m.loaded = false
				m.mu.Unlock()
			}
		},
	})
	go func() {
		defer close(m.done)
		sup.Run(supCtx)
	}()

	if _, err := m.ipc.Command(ctx, "get_property", "mpv-version"); err != nil {
		m.Close()
		return nil, fmt.Errorf("mpv did not come up: %w", err)
	}
	logger.Info("mpv engine ready", "socket", cfg.Socket)
	return m, nil
}

// newMPVClient creates the IPC side of the engine without a process.
func newMPVClient(socket string, onEnd MediaEndFunc, logger *slog.Logger) *MPV {
	m := &MPV{logger: logger, onEnd: onEnd}
	m.ipc = newIPCClient(socket, logger, m.handleEvent)
	return m
}

func mpvArgs(cfg MPVConfig) ([]string, error) {
	path := cfg.Path
	if path == "" {
		path = "mpv"
	}
	args, err := process.ParseCommand(path)
	if err != nil {
		return nil, fmt.Errorf("invalid mpv path: %w", err)
	}
	if cfg.Socket == "" {
		return nil, errors.New("mpv socket path is required")
	}

	args = append(args,
		"--idle=yes",
		"--no-video",
		"--no-config",
		"--volume-max=100",
		"--msg-level=all=warn",
		"--input-ipc-server="+cfg.Socket,
	)
	if cfg.AudioDevice != "" {
		args = append(args, "--audio-device="+cfg.AudioDevice)
	}
	return args, nil
}

// parseMPVLogLine maps mpv terminal output to log levels.
func parseMPVLogLine(line string) (string, string) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return "error", line
	case strings.Contains(lower, "warn"):
		return "warn", line
	default:
		return "info", line
	}
}

func (m *MPV) handleEvent(msg ipcMessage) {
	if msg.Event != "end-file" {
		return
	}
	m.logger.Debug("mpv end-file", "reason", msg.Reason)
	if msg.Reason != "eof" {
		return
	}

	m.mu.Lock()
	wasLoaded := m.loaded
	m.loaded = false
	m.mu.Unlock()

	if wasLoaded && m.onEnd != nil {
		m.onEnd()
	}
}

// Load implements Engine.
func (m *MPV) Load(ctx context.Context, path string, volume int) error {
	if _, err := m.ipc.Command(ctx, "set_property", "volume", clampVolume(volume)); err != nil {
		return err
	}
	if _, err := m.ipc.Command(ctx, "set_property", "pause", false); err != nil {
		return err
	}

	_, err := m.ipc.Command(ctx, "loadfile", path, "replace")

	m.mu.Lock()
	m.loaded = err == nil
	m.mu.Unlock()
	return err
}

func (m *MPV) setPause(ctx context.Context, pause bool) error {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}
	_, err := m.ipc.Command(ctx, "set_property", "pause", pause)
	return err
}

// Pause implements Engine.
func (m *MPV) Pause(ctx context.Context) error {
	return m.setPause(ctx, true)
}

// Resume implements Engine.
func (m *MPV) Resume(ctx context.Context) error {
	return m.setPause(ctx, false)
}

// Stop implements Engine.
func (m *MPV) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.loaded = false
	m.mu.Unlock()
	_, err := m.ipc.Command(ctx, "stop")
	return err
}

// SetVolume implements Engine.
func (m *MPV) SetVolume(ctx context.Context, volume int) error {
	_, err := m.ipc.Command(ctx, "set_property", "volume", clampVolume(volume))
	return err
}

// Position implements Engine.
func (m *MPV) Position(ctx context.Context) (time.Duration, time.Duration, error) {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if !loaded {
		return 0, 0, ErrNotLoaded
	}

	elapsed, err := m.floatProperty(ctx, "time-pos")
	if err != nil {
		return 0, 0, err
	}
	total, err := m.floatProperty(ctx, "duration")
	if err != nil {
		return 0, 0, err
	}
	return seconds(elapsed), seconds(total), nil
}

// floatProperty reads a numeric property. mpv reports properties that do not
// exist yet (e.g. duration while a file is opening) as unavailable.
func (m *MPV) floatProperty(ctx context.Context, name string) (float64, error) {
	data, err := m.ipc.Command(ctx, "get_property", name)
	if err != nil {
		if strings.Contains(err.Error(), "property unavailable") {
			return 0, nil
		}
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// Close implements Engine. It stops mpv and waits for the process to exit.
func (m *MPV) Close() error {
	m.ipc.Close()
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return nil
}
