// Package engine plays audio files through an external player.
//
// Two backends exist: mpv, driven over its JSON IPC socket, and MPD through
// its client protocol. Both report the natural end of a track through the
// MediaEndFunc passed at construction.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotLoaded is returned when an operation needs media but none is loaded.
var ErrNotLoaded = errors.New("no media loaded")

// Backend names accepted by New.
const (
	BackendMPV = "mpv"
	BackendMPD = "mpd"
)

// Engine controls playback of a single track at a time.
type Engine interface {
	// Load replaces the current media with path and starts playing it.
	Load(ctx context.Context, path string, volume int) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	// SetVolume sets the output volume in percent (0-100).
	SetVolume(ctx context.Context, volume int) error
	// Position returns elapsed and total time of the loaded media.
	Position(ctx context.Context) (elapsed, total time.Duration, err error)
	Close() error
}

// MediaEndFunc is called when the loaded media finishes on its own.
// It is never called for Stop or Load replacing a track.
type MediaEndFunc func()

// Config selects and configures a backend.
type Config struct {
	Backend string

	MpvPath     string
	MpvSocket   string
	AudioDevice string

	MpdAddress  string
	MpdPassword string
	MpdMusicDir string
}

// New creates the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config, onEnd MediaEndFunc, logger *slog.Logger) (Engine, error) {
	switch cfg.Backend {
	case BackendMPV, "":
		return NewMPV(ctx, MPVConfig{
			Path:        cfg.MpvPath,
			Socket:      cfg.MpvSocket,
			AudioDevice: cfg.AudioDevice,
		}, onEnd, logger)
	case BackendMPD:
		return NewMPD(ctx, MPDConfig{
			Address:  cfg.MpdAddress,
			Password: cfg.MpdPassword,
			MusicDir: cfg.MpdMusicDir,
		}, onEnd, logger)
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}

func clampVolume(volume int) int {
	return max(0, min(100, volume))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
