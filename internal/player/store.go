package player

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// State is what the player remembers across restarts.
type State struct {
	Version int    `toml:"version"`
	Volume  int    `toml:"volume"`
	Track   string `toml:"track"`
}

// Store persists State.
type Store interface {
	// Load returns the saved state; ok is false when nothing was saved yet.
	Load() (state State, ok bool, err error)
	Save(state State) error
}

// tomlStore implements Store using a TOML file.
type tomlStore struct {
	path string
}

// NewTOMLStore creates a TOML-backed store at path.
func NewTOMLStore(path string) Store {
	if path == "" {
		path = "player_state.toml"
	}
	return &tomlStore{path: path}
}

// Load reads the state file. A missing file is not an error.
func (s *tomlStore) Load() (State, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to read player state: %w", err)
	}

	var st State
	if err := toml.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("failed to parse player state: %w", err)
	}
	return st, true, nil
}

// Save writes the state file through a temporary file and rename.
func (s *tomlStore) Save(st State) error {
	if st.Version == 0 {
		st.Version = 1
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write player state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace player state: %w", err)
	}
	return nil
}
