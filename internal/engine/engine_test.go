package engine

import (
	"context"
	"testing"
	"time"
)

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), Config{Backend: "vlc"}, nil, testLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {50, 50}, {100, 100}, {105, 100},
	}
	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMPDURI(t *testing.T) {
	m := &MPD{cfg: MPDConfig{MusicDir: "/var/lib/mpd/music"}}
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/var/lib/mpd/music/album/a.mp3", "album/a.mp3", false},
		{"/var/lib/mpd/music/a.mp3", "a.mp3", false},
		{"/home/pi/luffy/audio_library/a.mp3", "", true},
		{"relative/a.mp3", "relative/a.mp3", false},
	}
	for _, tt := range tests {
		got, err := m.uri(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("uri(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("uri(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMPDNetwork(t *testing.T) {
	if n, a := mpdNetwork("/run/mpd/socket"); n != "unix" || a != "/run/mpd/socket" {
		t.Errorf("mpdNetwork(socket) = %s %s", n, a)
	}
	if n, _ := mpdNetwork("localhost:6600"); n != "tcp" {
		t.Errorf("mpdNetwork(tcp) = %s", n)
	}
}

func TestParseSeconds(t *testing.T) {
	if got := seconds(parseSeconds("12.500")); got != 12500*time.Millisecond {
		t.Errorf("got %v, want 12.5s", got)
	}
	if got := parseSeconds(""); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}
