// Package library finds the playable files in the audio directory.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/smazurov/luffyplayer/internal/config"
)

var (
	// ErrNotFound is returned when the library directory does not exist.
	ErrNotFound = errors.New("audio library directory not found")
	// ErrEmpty is returned when the directory holds no playable files.
	ErrEmpty = errors.New("no audio files found in library")
)

// DefaultExtensions lists the playable extensions in play order.
var DefaultExtensions = []string{"mp3", "wav", "m4a", "aac"}

// rescanDebounce lets a copy of several files settle before rescanning.
const rescanDebounce = 500 * time.Millisecond

// Scan lists the files in dir whose extension is in exts, compared without
// regard to case. Files are grouped by extension in the order of exts and
// sorted by path within each group. Subdirectories are not descended.
func Scan(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read library %s: %w", dir, err)
	}

	groups := make(map[string][]string, len(exts))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := normalizeExt(filepath.Ext(e.Name()))
		groups[ext] = append(groups[ext], filepath.Join(dir, e.Name()))
	}

	var tracks []string
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if seen[ext] {
			continue
		}
		seen[ext] = true
		group := groups[ext]
		sort.Strings(group)
		tracks = append(tracks, group...)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, dir)
	}
	return tracks, nil
}

// Playable reports whether name has one of exts, compared without regard
// to case.
func Playable(name string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ext := normalizeExt(filepath.Ext(name))
	for _, e := range exts {
		if normalizeExt(e) == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Name is the display name of a track.
func Name(track string) string {
	return filepath.Base(track)
}

// IndexOf returns the position of track in tracks, or -1.
func IndexOf(tracks []string, track string) int {
	for i, t := range tracks {
		if t == track {
			return i
		}
	}
	return -1
}

// Watch returns a watcher that rescans dir whenever playable files appear,
// change or disappear. Other files, such as cover images or partial
// downloads, do not trigger a rescan. Handlers receive the fresh track list;
// failed scans go to the watcher's error handler.
func Watch(dir string, exts []string, logger *slog.Logger, onError func(error)) *config.Watcher[[]string] {
	return config.NewConfigWatcher(dir,
		func(path string) ([]string, error) { return Scan(path, exts) },
		logger,
		config.WithDebounce[[]string](rescanDebounce),
		config.WithErrorHandler[[]string](onError),
		config.WithFilter[[]string](func(name string) bool { return Playable(name, exts) }),
	)
}
