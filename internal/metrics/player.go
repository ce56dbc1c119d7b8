// Package metrics provides Prometheus metrics for the player and the board.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "luffyplayer"

var (
	playerPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "player",
		Name:      "playing",
		Help:      "1 while audio is playing, 0 otherwise",
	})

	playerVolume = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "player",
		Name:      "volume_percent",
		Help:      "Current output volume",
	})

	playerTrackIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "player",
		Name:      "track_index",
		Help:      "Index of the current track in the library",
	})

	trackChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "player",
		Name:      "track_changes_total",
		Help:      "Track changes by cause",
	}, []string{"reason"})

	buttonPresses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "buttons",
		Name:      "presses_total",
		Help:      "Debounced button presses",
	}, []string{"button"})

	libraryTracks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "library",
		Name:      "tracks",
		Help:      "Playable files found by the last scan",
	})

	libraryScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "library",
		Name:      "scan_errors_total",
		Help:      "Library scans that failed",
	})

	displayFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "display",
		Name:      "frames_total",
		Help:      "Frames pushed to the panel by result",
	}, []string{"result"})

	engineRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "restarts_total",
		Help:      "Times the playback backend had to be restarted",
	})
)

// SetPlaying records whether audio is currently audible.
func SetPlaying(playing bool) {
	if playing {
		playerPlaying.Set(1)
	} else {
		playerPlaying.Set(0)
	}
}

// SetVolume records the applied volume.
func SetVolume(volume int) {
	playerVolume.Set(float64(volume))
}

// RecordTrackChange records a move to index for the given reason.
func RecordTrackChange(index int, reason string) {
	playerTrackIndex.Set(float64(index))
	trackChanges.WithLabelValues(reason).Inc()
}

// RecordButtonPress counts a debounced press.
func RecordButtonPress(button string) {
	buttonPresses.WithLabelValues(button).Inc()
}

// RecordLibraryScan records the outcome of a library scan.
func RecordLibraryScan(tracks int, err error) {
	if err != nil {
		libraryScanErrors.Inc()
	}
	libraryTracks.Set(float64(tracks))
}

// RecordFrame counts a frame pushed to the panel.
func RecordFrame(err error) {
	if err != nil {
		displayFrames.WithLabelValues("error").Inc()
		return
	}
	displayFrames.WithLabelValues("ok").Inc()
}

// RecordEngineRestart counts a backend restart.
func RecordEngineRestart() {
	engineRestarts.Inc()
}
