package provision

import (
	"path/filepath"

	"github.com/smazurov/luffyplayer/internal/systemd"
)

// Plan describes one provisioning run and the files it touches. All paths
// are absolute on the target system and resolved below Root.
type Plan struct {
	// Root prefixes every path; empty means "/".
	Root string

	BootConfigPath string
	Boot           BootOptions
	SkipBootConfig bool

	AsoundPath string
	Card       string
	SkipAsound bool

	// ProcRoot is where procfs is mounted, used by the checks only.
	ProcRoot string

	UnitDir  string
	UnitName string
	Unit     systemd.UnitSpec

	Enable bool
	Start  bool
	Reboot bool
	DryRun bool
}

// resolve maps a target path below Root.
func (p Plan) resolve(path string) string {
	if p.Root == "" || p.Root == "/" {
		return path
	}
	return filepath.Join(p.Root, path)
}

// UnitPath is the target path of the unit file.
func (p Plan) UnitPath() string {
	return filepath.Join(p.UnitDir, p.UnitName)
}

// BackupPath is where the first pre-provisioning copy of path is kept.
func BackupPath(path string) string {
	return path + ".luffyplayer.bak"
}
