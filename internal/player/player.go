// Package player is the button-driven audio player: it owns the track list,
// the playback state and the screen.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/smazurov/luffyplayer/internal/buttons"
	"github.com/smazurov/luffyplayer/internal/display"
	"github.com/smazurov/luffyplayer/internal/engine"
	"github.com/smazurov/luffyplayer/internal/events"
	"github.com/smazurov/luffyplayer/internal/library"
)

// Reasons carried by TrackChangedEvent.
const (
	ReasonButton = "button"
	ReasonAPI    = "api"
	ReasonEnd    = "end"
	ReasonRescan = "rescan"
)

const (
	defaultVolume     = 50
	defaultVolumeStep = 5
	cleanupTimeout    = 5 * time.Second
)

// Renderer turns a status into a frame.
type Renderer interface {
	Render(st display.Status) *image.RGBA
}

// Options configures a Player.
type Options struct {
	Tracks          []string
	Volume          int
	VolumeStep      int
	Autoplay        bool
	RefreshInterval time.Duration
	// StartIndex picks the first track; nil picks one at random.
	StartIndex func(n int) int
}

// Deps are the collaborators a Player drives.
type Deps struct {
	// NewEngine builds the engine; onEnd must be wired to its media end.
	NewEngine func(onEnd engine.MediaEndFunc) (engine.Engine, error)
	Panel     display.Panel
	Renderer  Renderer
	Buttons   buttons.Source
	Bus       *events.Bus
	// Store remembers volume and track; nil disables it.
	Store  Store
	Logger *slog.Logger
}

// Status is a snapshot of the player.
type Status struct {
	Tracks      int           `json:"tracks" doc:"Number of tracks in the library"`
	Index       int           `json:"index" doc:"Current track position"`
	Track       string        `json:"track" doc:"Current track file name"`
	Path        string        `json:"path" doc:"Current track path"`
	Volume      int           `json:"volume" doc:"Volume, 0-100"`
	Playing     bool          `json:"playing" doc:"Audio is playing"`
	MediaLoaded bool          `json:"media_loaded" doc:"A track is loaded in the engine"`
	Elapsed     time.Duration `json:"elapsed_ns" doc:"Elapsed time of the loaded track"`
	Total       time.Duration `json:"total_ns" doc:"Length of the loaded track"`
}

// Player is the audio player state machine.
type Player struct {
	engine   engine.Engine
	panel    display.Panel
	renderer Renderer
	buttons  buttons.Source
	bus      *events.Bus
	store    Store
	logger   *slog.Logger

	step     int
	autoplay bool
	refresh  time.Duration
	redraws  chan struct{}
	ended    chan struct{}

	mu      sync.Mutex
	tracks  []string
	index   int
	volume  int
	playing bool
	loaded  bool
}

// New creates a player over tracks. The first track is random unless a
// remembered track is restored from the store.
func New(opts Options, deps Deps) (*Player, error) {
	if len(opts.Tracks) == 0 {
		return nil, library.ErrEmpty
	}
	if deps.Buttons == nil {
		deps.Buttons = buttons.None{}
	}
	if deps.Bus == nil {
		deps.Bus = events.New()
	}

	p := &Player{
		panel:    deps.Panel,
		renderer: deps.Renderer,
		buttons:  deps.Buttons,
		bus:      deps.Bus,
		store:    deps.Store,
		logger:   deps.Logger,
		step:     opts.VolumeStep,
		autoplay: opts.Autoplay,
		refresh:  opts.RefreshInterval,
		redraws:  make(chan struct{}, 1),
		ended:    make(chan struct{}, 1),
		tracks:   append([]string(nil), opts.Tracks...),
		volume:   clamp(opts.Volume),
	}
	if p.step <= 0 {
		p.step = defaultVolumeStep
	}
	if p.refresh <= 0 {
		p.refresh = time.Second
	}

	pick := opts.StartIndex
	if pick == nil {
		pick = rand.IntN
	}
	p.index = pick(len(p.tracks)) % len(p.tracks)
	p.restore()

	eng, err := deps.NewEngine(p.mediaEnded)
	if err != nil {
		return nil, fmt.Errorf("failed to create playback engine: %w", err)
	}
	p.engine = eng

	p.logger.Info("Loaded audio files", "count", len(p.tracks), "start", library.Name(p.tracks[p.index]))
	return p, nil
}

func (p *Player) restore() {
	if p.store == nil {
		return
	}
	st, ok, err := p.store.Load()
	if err != nil {
		p.logger.Warn("Ignoring saved player state", "error", err)
		return
	}
	if !ok {
		return
	}
	p.volume = clamp(st.Volume)
	if i := library.IndexOf(p.tracks, st.Track); i >= 0 {
		p.index = i
	}
	p.logger.Info("Restored player state", "volume", p.volume, "track", library.Name(p.tracks[p.index]))
}

// persist saves volume and track. Caller must hold p.mu.
func (p *Player) persist() {
	if p.store == nil {
		return
	}
	if err := p.store.Save(State{Volume: p.volume, Track: p.tracks[p.index]}); err != nil {
		p.logger.Warn("Failed to save player state", "error", err)
	}
}

func clamp(volume int) int {
	return max(0, min(100, volume))
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// mediaEnded is called by the engine from its event reader and must not
// block it. An end already pending absorbs this one.
func (p *Player) mediaEnded() {
	select {
	case p.ended <- struct{}{}:
	default:
	}
}

// requestRedraw queues a redraw; a pending one covers this request.
func (p *Player) requestRedraw() {
	select {
	case p.redraws <- struct{}{}:
	default:
	}
}

// publishState announces the playback state. Caller must hold p.mu.
func (p *Player) publishState() {
	state := events.StateStopped
	switch {
	case p.playing:
		state = events.StatePlaying
	case p.loaded:
		state = events.StatePaused
	}
	p.bus.Publish(events.PlaybackStateChangedEvent{
		State:     state,
		Track:     library.Name(p.tracks[p.index]),
		Timestamp: timestamp(),
	})
}

// TogglePlayback starts playback when nothing is loaded and otherwise
// pauses or resumes.
func (p *Player) TogglePlayback(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.togglePlayback(ctx)
}

func (p *Player) togglePlayback(ctx context.Context) error {
	if !p.loaded {
		return p.startPlayback(ctx)
	}

	if p.playing {
		if err := p.engine.Pause(ctx); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		p.playing = false
		p.logger.Info("Playback paused")
	} else {
		err := p.engine.Resume(ctx)
		if errors.Is(err, engine.ErrNotLoaded) {
			// The engine lost the media, e.g. after an mpv restart.
			return p.startPlayback(ctx)
		}
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		p.playing = true
		p.logger.Info("Playback resumed")
	}
	p.publishState()
	p.requestRedraw()
	return nil
}

// StartPlayback loads the current track at the current volume and plays it.
func (p *Player) StartPlayback(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startPlayback(ctx)
}

func (p *Player) startPlayback(ctx context.Context) error {
	track := p.tracks[p.index]
	if err := p.engine.Load(ctx, track, p.volume); err != nil {
		p.loaded = false
		p.playing = false
		return fmt.Errorf("start playback of %s: %w", library.Name(track), err)
	}
	p.loaded = true
	p.playing = true
	p.publishState()
	p.requestRedraw()
	p.logger.Info("Started playing", "track", track)
	return nil
}

// NextTrack advances to the next track, wrapping at the end. Playback
// restarts on the new track only if it was playing.
func (p *Player) NextTrack(ctx context.Context, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextTrack(ctx, reason)
}

func (p *Player) nextTrack(ctx context.Context, reason string) error {
	p.index = (p.index + 1) % len(p.tracks)
	track := p.tracks[p.index]
	p.bus.Publish(events.TrackChangedEvent{
		Index:     p.index,
		Track:     library.Name(track),
		Reason:    reason,
		Timestamp: timestamp(),
	})
	p.persist()
	p.logger.Info("Switched to track", "track", track, "reason", reason)

	if p.playing {
		return p.startPlayback(ctx)
	}
	p.requestRedraw()
	return nil
}

// AdjustVolume changes the volume by delta, clamped to 0..100.
func (p *Player) AdjustVolume(ctx context.Context, delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setVolume(ctx, p.volume+delta)
}

// SetVolume sets an absolute volume, clamped to 0..100.
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setVolume(ctx, volume)
}

func (p *Player) setVolume(ctx context.Context, volume int) error {
	p.volume = clamp(volume)
	p.bus.Publish(events.VolumeChangedEvent{Volume: p.volume, Timestamp: timestamp()})
	p.persist()
	p.requestRedraw()
	p.logger.Info("Volume adjusted", "volume", p.volume)

	if err := p.engine.SetVolume(ctx, p.volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// Stop stops playback. The next toggle loads the current track again.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop(ctx)
}

func (p *Player) stop(ctx context.Context) error {
	err := p.engine.Stop(ctx)
	p.playing = false
	p.loaded = false
	p.publishState()
	p.requestRedraw()
	p.logger.Info("Playback stopped")
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

// HandleButton maps a press to its action: A toggles playback, B skips,
// X and Y lower and raise the volume.
func (p *Player) HandleButton(ctx context.Context, b buttons.Button) error {
	p.logger.Debug("Button pressed", "button", b)
	p.bus.Publish(events.ButtonPressedEvent{Button: string(b), Timestamp: timestamp()})

	p.mu.Lock()
	defer p.mu.Unlock()

	switch b {
	case buttons.A:
		return p.togglePlayback(ctx)
	case buttons.B:
		return p.nextTrack(ctx, ReasonButton)
	case buttons.X:
		return p.setVolume(ctx, p.volume-p.step)
	case buttons.Y:
		return p.setVolume(ctx, p.volume+p.step)
	default:
		return fmt.Errorf("unknown button %q", b)
	}
}

// ReplaceTracks swaps in a rescanned track list, keeping the current track
// when it still exists.
func (p *Player) ReplaceTracks(tracks []string) {
	if len(tracks) == 0 {
		p.RescanFailed(library.ErrEmpty)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.tracks[p.index]
	p.tracks = append([]string(nil), tracks...)
	if i := library.IndexOf(p.tracks, current); i >= 0 {
		p.index = i
	} else {
		p.index = min(p.index, len(p.tracks)-1)
		p.bus.Publish(events.TrackChangedEvent{
			Index:     p.index,
			Track:     library.Name(p.tracks[p.index]),
			Reason:    ReasonRescan,
			Timestamp: timestamp(),
		})
	}

	p.bus.Publish(events.LibraryRescannedEvent{Tracks: len(p.tracks), Timestamp: timestamp()})
	p.requestRedraw()
	p.logger.Info("Library rescanned", "tracks", len(p.tracks), "current", library.Name(p.tracks[p.index]))
}

// RescanFailed records a failed rescan; the old track list stays.
func (p *Player) RescanFailed(err error) {
	p.logger.Warn("Library rescan failed, keeping current tracks", "error", err)
	p.mu.Lock()
	n := len(p.tracks)
	p.mu.Unlock()
	p.bus.Publish(events.LibraryRescannedEvent{Tracks: n, Error: err.Error(), Timestamp: timestamp()})
}

// Tracks returns the current track list.
func (p *Player) Tracks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tracks...)
}

// Status returns a snapshot including the engine position while playing.
func (p *Player) Status(ctx context.Context) Status {
	p.mu.Lock()
	st := Status{
		Tracks:      len(p.tracks),
		Index:       p.index,
		Track:       library.Name(p.tracks[p.index]),
		Path:        p.tracks[p.index],
		Volume:      p.volume,
		Playing:     p.playing,
		MediaLoaded: p.loaded,
	}
	p.mu.Unlock()

	if st.MediaLoaded {
		elapsed, total, err := p.engine.Position(ctx)
		if err == nil {
			st.Elapsed, st.Total = elapsed, total
		} else if !errors.Is(err, engine.ErrNotLoaded) {
			p.logger.Debug("Position unavailable", "error", err)
		}
	}
	return st
}
