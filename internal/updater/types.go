package updater

import (
	"context"
	"time"
)

// State is where the updater is in its check/apply cycle.
type State string

// Update states.
const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Service checks GitHub releases and replaces the running binary.
type Service interface {
	// CheckForUpdate compares the latest release with the running version.
	CheckForUpdate(ctx context.Context) (*UpdateInfo, error)

	// ApplyUpdate backs up the binary, installs the latest release and
	// requests a restart.
	ApplyUpdate(ctx context.Context) error

	// Rollback restores the binary saved by the last ApplyUpdate.
	Rollback(ctx context.Context) error

	GetStatus(ctx context.Context) *Status

	// IsEnabled is false when the binary's directory is not writable.
	IsEnabled() bool
	DisabledReason() string

	// RestartRequested is closed once a new binary is in place. The daemon
	// exits non-zero so that systemd starts the new version.
	RestartRequested() <-chan struct{}
}

// UpdateInfo describes the latest release relative to the running build.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitzero"`
	AssetSize       int       `json:"asset_size,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is a snapshot of the updater.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	Enabled         bool       `json:"enabled"`
	DisabledReason  string     `json:"disabled_reason,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options configures the updater.
type Options struct {
	Repository string // GitHub slug, e.g. "smazurov/luffyplayer"
	Prerelease bool
	// BackupDir holds the previous binary. Defaults to ~/.cache/luffyplayer/backup.
	BackupDir string
	// RestartDelay lets an API response flush before the restart is signalled.
	RestartDelay time.Duration
}
