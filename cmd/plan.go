package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/provision"
	"github.com/smazurov/luffyplayer/internal/systemd"
)

// NewPlan builds the provisioning plan described by opts. exe is the binary
// the native unit runs; it is ignored when a script is configured.
func NewPlan(opts *config.Options, exe string) (provision.Plan, error) {
	var (
		execStart string
		python    bool
	)
	if opts.ServiceScript != "" {
		execStart = systemd.ScriptExecStart(opts.ServiceVenv, opts.ServiceScript)
		python = true
	} else {
		configPath := opts.Config
		if configPath != "" {
			abs, err := filepath.Abs(configPath)
			if err != nil {
				return provision.Plan{}, fmt.Errorf("failed to resolve config path: %w", err)
			}
			configPath = abs
		}
		execStart = systemd.NativeExecStart(exe, configPath)
	}

	unit := systemd.NewUnitSpec(opts.ServiceUser, opts.ServiceWorkDir, execStart,
		opts.ServiceLogFile, opts.ServiceDisplay, python)
	unit.RestartSec = opts.ServiceRestartSec

	boot := provision.DefaultBootOptions()
	if opts.BootDacOverlay != "" {
		boot.DACOverlay = opts.BootDacOverlay
	}
	boot.ExtraLines = opts.BootLines()

	return provision.Plan{
		BootConfigPath: opts.BootConfigPath,
		Boot:           boot,
		AsoundPath:     opts.AsoundPath,
		Card:           opts.AsoundCard,
		ProcRoot:       opts.ProcRoot,
		UnitDir:        opts.ServiceUnitDir,
		UnitName:       opts.ServiceName,
		Unit:           unit,
	}, nil
}

// Executable is the resolved path of the running binary.
func Executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.EvalSymlinks(exe)
}
