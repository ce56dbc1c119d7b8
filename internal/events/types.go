package events

// Event type constants for kelindar/event.
const (
	TypePlaybackStateChanged uint32 = iota + 1
	TypeTrackChanged
	TypeVolumeChanged
	TypeButtonPressed
	TypeLibraryRescanned
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Playback states carried by PlaybackStateChangedEvent.
const (
	StateStopped = "stopped"
	StatePlaying = "playing"
	StatePaused  = "paused"
)

// PlaybackStateChangedEvent is published whenever the player starts, pauses,
// resumes or stops. The LED manager reacts to it.
type PlaybackStateChangedEvent struct {
	State     string `json:"state" example:"playing" doc:"One of stopped, playing, paused"`
	Track     string `json:"track" example:"song.mp3" doc:"Current track file name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlaybackStateChangedEvent.
func (e PlaybackStateChangedEvent) Type() uint32 { return TypePlaybackStateChanged }

// IsPlaying reports whether audio is audible after this change.
func (e PlaybackStateChangedEvent) IsPlaying() bool { return e.State == StatePlaying }

// TrackChangedEvent is published when the current index moves.
type TrackChangedEvent struct {
	Index     int    `json:"index" example:"3" doc:"Position in the library"`
	Track     string `json:"track" example:"song.mp3" doc:"Track file name"`
	Reason    string `json:"reason" example:"button" doc:"What moved the index: button, api, end"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TrackChangedEvent.
func (e TrackChangedEvent) Type() uint32 { return TypeTrackChanged }

// VolumeChangedEvent is published after the volume was clamped and applied.
type VolumeChangedEvent struct {
	Volume    int    `json:"volume" example:"55" doc:"New volume, 0-100"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for VolumeChangedEvent.
func (e VolumeChangedEvent) Type() uint32 { return TypeVolumeChanged }

// ButtonPressedEvent is published for every debounced press.
type ButtonPressedEvent struct {
	Button    string `json:"button" example:"A" doc:"Button label"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ButtonPressedEvent.
func (e ButtonPressedEvent) Type() uint32 { return TypeButtonPressed }

// LibraryRescannedEvent is published when the audio directory was scanned again.
type LibraryRescannedEvent struct {
	Tracks    int    `json:"tracks" example:"12" doc:"Number of playable files"`
	Error     string `json:"error,omitempty" doc:"Scan error, empty on success"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LibraryRescannedEvent.
func (e LibraryRescannedEvent) Type() uint32 { return TypeLibraryRescanned }
