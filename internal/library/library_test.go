package library

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanOrdering(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.wav", "z.MP3", "a.mp3", "c.m4a", "notes.txt", "d.AAC", "e.flac")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "z.MP3"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "c.m4a"),
		filepath.Join(dir, "d.AAC"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v\nwant %v", got, want)
	}
}

func TestScanCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3", "b.flac", "c.FLAC")

	got, err := Scan(dir, []string{".flac", "flac"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || Name(got[0]) != "b.flac" || Name(got[1]) != "c.FLAC" {
		t.Errorf("Scan() = %v", got)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		want error
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "audio_library") }, ErrNotFound},
		{"empty", func(t *testing.T) string { return t.TempDir() }, ErrEmpty},
		{"no matches", func(t *testing.T) string {
			dir := t.TempDir()
			touch(t, dir, "cover.jpg")
			return dir
		}, ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Scan(tt.dir(t), nil); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIndexOf(t *testing.T) {
	tracks := []string{"lib/a.mp3", "lib/b.mp3"}
	if got := IndexOf(tracks, "lib/b.mp3"); got != 1 {
		t.Errorf("IndexOf = %d, want 1", got)
	}
	if got := IndexOf(tracks, "lib/c.mp3"); got != -1 {
		t.Errorf("IndexOf missing = %d, want -1", got)
	}
}

func TestWatchRescans(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	received := make(chan []string, 4)
	w := Watch(dir, nil, logger, func(error) {})
	w.OnReload(func(tracks []string) { received <- tracks })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	touch(t, dir, "b.mp3")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case tracks := <-received:
			if len(tracks) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for rescan")
		}
	}
}

func TestPlayable(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"song.mp3", nil, true},
		{"/music/Song.FLAC", []string{"flac"}, true},
		{"track.m4a", []string{".m4a"}, true},
		{"cover.jpg", nil, false},
		{"song.mp3.part", nil, false},
		{"noext", nil, false},
	}
	for _, tt := range tests {
		if got := Playable(tt.name, tt.exts); got != tt.want {
			t.Errorf("Playable(%q, %v) = %v, want %v", tt.name, tt.exts, got, tt.want)
		}
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	received := make(chan []string, 4)
	w := Watch(dir, nil, logger, func(error) {})
	w.OnReload(func(tracks []string) { received <- tracks })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	touch(t, dir, "cover.jpg")

	select {
	case tracks := <-received:
		t.Fatalf("unexpected rescan: %v", tracks)
	case <-time.After(2 * rescanDebounce):
	}
}
