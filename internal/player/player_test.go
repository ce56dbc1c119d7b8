package player

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/luffyplayer/internal/buttons"
	"github.com/smazurov/luffyplayer/internal/display"
	"github.com/smazurov/luffyplayer/internal/engine"
	"github.com/smazurov/luffyplayer/internal/events"
	"github.com/smazurov/luffyplayer/internal/library"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTracks = []string{"/lib/a.mp3", "/lib/b.mp3", "/lib/c.wav"}

type fakeEngine struct {
	mu        sync.Mutex
	onEnd     engine.MediaEndFunc
	loads     []string
	volumes   []int
	paused    bool
	loaded    bool
	stops     int
	closed    bool
	loadErr   error
	resumeErr error
}

func (e *fakeEngine) Load(_ context.Context, path string, volume int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return e.loadErr
	}
	e.loads = append(e.loads, path)
	e.volumes = append(e.volumes, volume)
	e.loaded = true
	e.paused = false
	return nil
}

func (e *fakeEngine) Pause(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	return nil
}

func (e *fakeEngine) Resume(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resumeErr != nil {
		return e.resumeErr
	}
	e.paused = false
	return nil
}

func (e *fakeEngine) Stop(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.loaded = false
	return nil
}

func (e *fakeEngine) SetVolume(_ context.Context, volume int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volumes = append(e.volumes, volume)
	return nil
}

func (e *fakeEngine) Position(context.Context) (time.Duration, time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return 0, 0, engine.ErrNotLoaded
	}
	return 3 * time.Second, 60 * time.Second, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) lastLoad() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.loads) == 0 {
		return ""
	}
	return e.loads[len(e.loads)-1]
}

func (e *fakeEngine) lastVolume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volumes[len(e.volumes)-1]
}

type fakePanel struct {
	mu     sync.Mutex
	frames int
	closed bool
}

func (p *fakePanel) Show(image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames++
	return nil
}

func (p *fakePanel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeRenderer struct {
	mu   sync.Mutex
	last display.Status
}

func (r *fakeRenderer) Render(st display.Status) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = st
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

type memStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

func (s *memStore) Load() (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.saved, nil
}

func (s *memStore) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.saved = st, true
	return nil
}

type fixture struct {
	player   *Player
	engine   *fakeEngine
	panel    *fakePanel
	renderer *fakeRenderer
	bus      *events.Bus
}

func newFixture(t *testing.T, opts Options, store Store) *fixture {
	t.Helper()
	f := &fixture{
		engine:   &fakeEngine{},
		panel:    &fakePanel{},
		renderer: &fakeRenderer{},
		bus:      events.New(),
	}
	if opts.Tracks == nil {
		opts.Tracks = testTracks
	}
	if opts.Volume == 0 {
		opts.Volume = 50
	}
	if opts.StartIndex == nil {
		opts.StartIndex = func(int) int { return 0 }
	}

	p, err := New(opts, Deps{
		NewEngine: func(onEnd engine.MediaEndFunc) (engine.Engine, error) {
			f.engine.onEnd = onEnd
			return f.engine, nil
		},
		Panel:    f.panel,
		Renderer: f.renderer,
		Bus:      f.bus,
		Store:    store,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.player = p
	return f
}

func TestNewRequiresTracks(t *testing.T) {
	_, err := New(Options{}, Deps{Logger: testLogger()})
	if !errors.Is(err, library.ErrEmpty) {
		t.Errorf("New without tracks = %v, want ErrEmpty", err)
	}
}

func TestNewEngineError(t *testing.T) {
	_, err := New(Options{Tracks: testTracks}, Deps{
		NewEngine: func(engine.MediaEndFunc) (engine.Engine, error) { return nil, errors.New("no mpv") },
		Bus:       events.New(),
		Logger:    testLogger(),
	})
	if err == nil {
		t.Error("expected engine error")
	}
}

func TestRandomStartIndexInRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, Options{StartIndex: func(n int) int { return n + i }}, nil)
		if idx := f.player.Status(context.Background()).Index; idx < 0 || idx >= len(testTracks) {
			t.Fatalf("start index %d out of range", idx)
		}
	}
}

func TestTogglePlayback(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	// Nothing loaded: toggle starts the current track.
	if err := f.player.TogglePlayback(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.lastLoad(); got != testTracks[0] {
		t.Errorf("loaded %q, want %q", got, testTracks[0])
	}
	if st := f.player.Status(ctx); !st.Playing || !st.MediaLoaded {
		t.Errorf("after start: %+v", st)
	}

	if err := f.player.TogglePlayback(ctx); err != nil {
		t.Fatal(err)
	}
	if !f.engine.paused || f.player.Status(ctx).Playing {
		t.Error("second toggle should pause")
	}

	if err := f.player.TogglePlayback(ctx); err != nil {
		t.Fatal(err)
	}
	if f.engine.paused || !f.player.Status(ctx).Playing {
		t.Error("third toggle should resume")
	}
	if len(f.engine.loads) != 1 {
		t.Errorf("loads = %d, want 1", len(f.engine.loads))
	}
}

func TestToggleReloadsWhenEngineLostMedia(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	f.player.TogglePlayback(ctx)
	f.player.TogglePlayback(ctx)
	f.engine.resumeErr = engine.ErrNotLoaded

	if err := f.player.TogglePlayback(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.engine.loads) != 2 {
		t.Errorf("loads = %d, want 2", len(f.engine.loads))
	}
	if !f.player.Status(ctx).Playing {
		t.Error("player should be playing after reload")
	}
}

func TestStartPlaybackFailure(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	f.engine.loadErr = errors.New("device busy")

	if err := f.player.StartPlayback(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if st := f.player.Status(context.Background()); st.Playing || st.MediaLoaded {
		t.Errorf("state after failed load: %+v", st)
	}
}

func TestNextTrack(t *testing.T) {
	f := newFixture(t, Options{StartIndex: func(int) int { return 2 }}, nil)
	ctx := context.Background()

	// Not playing: index moves and wraps, nothing loads.
	if err := f.player.NextTrack(ctx, ReasonButton); err != nil {
		t.Fatal(err)
	}
	if idx := f.player.Status(ctx).Index; idx != 0 {
		t.Errorf("index = %d, want 0 after wrap", idx)
	}
	if len(f.engine.loads) != 0 {
		t.Errorf("next while stopped loaded %v", f.engine.loads)
	}

	// Playing: the new track starts.
	f.player.StartPlayback(ctx)
	if err := f.player.NextTrack(ctx, ReasonAPI); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.lastLoad(); got != testTracks[1] {
		t.Errorf("loaded %q, want %q", got, testTracks[1])
	}
}

func TestAdjustVolumeClamps(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	tests := []struct {
		delta int
		want  int
	}{
		{5, 55},
		{60, 100},
		{5, 100},
		{-200, 0},
		{-5, 0},
		{5, 5},
	}
	for _, tt := range tests {
		if err := f.player.AdjustVolume(ctx, tt.delta); err != nil {
			t.Fatal(err)
		}
		if got := f.player.Status(ctx).Volume; got != tt.want {
			t.Errorf("after %+d: volume = %d, want %d", tt.delta, got, tt.want)
		}
		if got := f.engine.lastVolume(); got != tt.want {
			t.Errorf("after %+d: engine volume = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestHandleButton(t *testing.T) {
	tests := []struct {
		button     buttons.Button
		wantVolume int
		wantIndex  int
		wantLoads  int
	}{
		{buttons.A, 50, 0, 1},
		{buttons.B, 50, 1, 0},
		{buttons.X, 45, 0, 0},
		{buttons.Y, 55, 0, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.button), func(t *testing.T) {
			f := newFixture(t, Options{}, nil)
			ctx := context.Background()
			if err := f.player.HandleButton(ctx, tt.button); err != nil {
				t.Fatal(err)
			}
			st := f.player.Status(ctx)
			if st.Volume != tt.wantVolume || st.Index != tt.wantIndex || len(f.engine.loads) != tt.wantLoads {
				t.Errorf("volume=%d index=%d loads=%d", st.Volume, st.Index, len(f.engine.loads))
			}
		})
	}

	f := newFixture(t, Options{}, nil)
	if err := f.player.HandleButton(context.Background(), "Z"); err == nil {
		t.Error("expected error for unknown button")
	}
}

func TestVolumeStepOption(t *testing.T) {
	f := newFixture(t, Options{VolumeStep: 10}, nil)
	f.player.HandleButton(context.Background(), buttons.Y)
	if got := f.player.Status(context.Background()).Volume; got != 60 {
		t.Errorf("volume = %d, want 60", got)
	}
}

func TestStop(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()
	f.player.StartPlayback(ctx)

	if err := f.player.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	st := f.player.Status(ctx)
	if st.Playing || st.MediaLoaded || f.engine.stops != 1 {
		t.Errorf("after stop: %+v stops=%d", st, f.engine.stops)
	}

	// Toggle after stop starts the same track again.
	f.player.TogglePlayback(ctx)
	if len(f.engine.loads) != 2 || f.engine.lastLoad() != testTracks[0] {
		t.Errorf("loads = %v", f.engine.loads)
	}
}

func TestStatusPosition(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	if st := f.player.Status(ctx); st.Elapsed != 0 || st.Total != 0 {
		t.Errorf("position before load: %v/%v", st.Elapsed, st.Total)
	}
	f.player.StartPlayback(ctx)
	st := f.player.Status(ctx)
	if st.Elapsed != 3*time.Second || st.Total != time.Minute {
		t.Errorf("position = %v/%v", st.Elapsed, st.Total)
	}
	if st.Track != "a.mp3" || st.Tracks != 3 {
		t.Errorf("status = %+v", st)
	}
}

func TestReplaceTracks(t *testing.T) {
	f := newFixture(t, Options{StartIndex: func(int) int { return 1 }}, nil)
	ctx := context.Background()

	// Current track survives at a new position.
	f.player.ReplaceTracks([]string{"/lib/0.mp3", "/lib/a.mp3", "/lib/b.mp3", "/lib/c.wav"})
	if st := f.player.Status(ctx); st.Index != 2 || st.Path != "/lib/b.mp3" {
		t.Errorf("after add: index=%d path=%s", st.Index, st.Path)
	}

	// Current track removed: index is clamped.
	f.player.ReplaceTracks([]string{"/lib/0.mp3", "/lib/a.mp3"})
	if st := f.player.Status(ctx); st.Index != 1 || st.Tracks != 2 {
		t.Errorf("after remove: %+v", st)
	}

	// An empty scan keeps the old list.
	f.player.ReplaceTracks(nil)
	if got := len(f.player.Tracks()); got != 2 {
		t.Errorf("tracks = %d, want 2", got)
	}
}

func TestStoreRestoreAndPersist(t *testing.T) {
	store := &memStore{state: State{Volume: 70, Track: testTracks[2]}, saved: true}
	f := newFixture(t, Options{}, store)
	ctx := context.Background()

	st := f.player.Status(ctx)
	if st.Volume != 70 || st.Index != 2 {
		t.Fatalf("restored volume=%d index=%d, want 70/2", st.Volume, st.Index)
	}

	f.player.AdjustVolume(ctx, -20)
	f.player.NextTrack(ctx, ReasonButton)

	got, _, _ := store.Load()
	if got.Volume != 50 || got.Track != testTracks[0] {
		t.Errorf("saved %+v", got)
	}
}

func TestStoreUnknownTrackIgnored(t *testing.T) {
	store := &memStore{state: State{Volume: 30, Track: "/gone.mp3"}, saved: true}
	f := newFixture(t, Options{StartIndex: func(int) int { return 1 }}, store)
	if st := f.player.Status(context.Background()); st.Index != 1 || st.Volume != 30 {
		t.Errorf("status = %+v", st)
	}
}

func TestPublishesEvents(t *testing.T) {
	f := newFixture(t, Options{}, nil)

	volumes := make(chan int, 1)
	states := make(chan string, 4)
	defer f.bus.Subscribe(func(e events.VolumeChangedEvent) { volumes <- e.Volume })()
	defer f.bus.Subscribe(func(e events.PlaybackStateChangedEvent) { states <- e.State })()

	ctx := context.Background()
	f.player.HandleButton(ctx, buttons.Y)
	f.player.TogglePlayback(ctx)
	f.player.TogglePlayback(ctx)

	select {
	case v := <-volumes:
		if v != 55 {
			t.Errorf("volume event = %d, want 55", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no volume event")
	}

	want := []string{events.StatePlaying, events.StatePaused}
	for _, w := range want {
		select {
		case s := <-states:
			if s != w {
				t.Errorf("state event = %s, want %s", s, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", w)
		}
	}
}

func TestRunAdvancesOnMediaEndAndCleansUp(t *testing.T) {
	f := newFixture(t, Options{Autoplay: true, RefreshInterval: 20 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.player.Run(ctx) }()

	waitFor := func(cond func() bool, what string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatalf("timeout waiting for %s", what)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor(func() bool { return f.engine.lastLoad() == testTracks[0] }, "autoplay")
	f.engine.onEnd()
	waitFor(func() bool { return f.engine.lastLoad() == testTracks[1] }, "next track after media end")

	// The ticker keeps redrawing while playing.
	f.panel.mu.Lock()
	before := f.panel.frames
	f.panel.mu.Unlock()
	waitFor(func() bool {
		f.panel.mu.Lock()
		defer f.panel.mu.Unlock()
		return f.panel.frames > before+2
	}, "periodic redraw")

	f.renderer.mu.Lock()
	last := f.renderer.last
	f.renderer.mu.Unlock()
	if last.Path != testTracks[1] || !last.Playing || last.Total != time.Minute {
		t.Errorf("last rendered status = %+v", last)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	if f.engine.stops != 1 || !f.engine.closed {
		t.Errorf("cleanup: stops=%d closed=%v", f.engine.stops, f.engine.closed)
	}
	if !f.panel.closed {
		t.Error("panel not closed")
	}

	// A late media end must not block after Run returned.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 32; i++ {
			f.player.mediaEnded()
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("mediaEnded blocked after Run returned")
	}
}

func TestMediaEndDoesNotBlockEngine(t *testing.T) {
	f := newFixture(t, Options{}, nil)

	// No loop is draining: every call must still return at once.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			f.player.mediaEnded()
			f.player.requestRedraw()
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("mediaEnded blocked while the loop was busy")
	}

	if n := len(f.player.ended); n != 1 {
		t.Errorf("pending media ends = %d, want 1", n)
	}
}
