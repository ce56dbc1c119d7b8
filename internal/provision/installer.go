package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smazurov/luffyplayer/internal/systemd"
)

// ErrNoSystemd is returned when a step needs systemd but no bus is available.
var ErrNoSystemd = errors.New("systemd is not available")

// UnitManager is the subset of systemd.Manager the installer drives.
type UnitManager interface {
	Reload(ctx context.Context) error
	EnableUnit(ctx context.Context, path string) error
	DisableUnit(ctx context.Context, name string) error
	StartService(ctx context.Context, name string) error
	StopService(ctx context.Context, name string) error
	UnitFileState(ctx context.Context, name string) (string, error)
	Reboot(ctx context.Context) error
}

// Step outcomes.
const (
	StepWritten   = "written"
	StepUnchanged = "unchanged"
	StepSkipped   = "skipped"
	StepPlanned   = "planned"
	StepDone      = "done"
)

// Step is one line of an install or uninstall report.
type Step struct {
	Name   string `json:"name" example:"boot-config"`
	Path   string `json:"path,omitempty" example:"/boot/firmware/config.txt"`
	Status string `json:"status" example:"written"`
	Detail string `json:"detail,omitempty"`
}

// Report is the outcome of Install or Uninstall.
type Report struct {
	Steps       []Step   `json:"steps"`
	BootChanges []Change `json:"boot_changes,omitempty"`
	// Files holds what was (or would be) written, keyed by target path.
	Files          map[string]string `json:"files,omitempty"`
	RebootRequired bool              `json:"reboot_required"`
}

func (r *Report) add(name, path, status, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, Path: path, Status: status, Detail: detail})
}

// Installer applies a Plan.
type Installer struct {
	units  UnitManager
	logger *slog.Logger
}

// NewInstaller creates an installer. units may be nil when there is no
// systemd bus; steps that need it then fail unless the plan is a dry run.
func NewInstaller(units UnitManager, logger *slog.Logger) *Installer {
	return &Installer{units: units, logger: logger}
}

// Install writes config.txt, asound.conf and the unit, then reloads,
// enables, starts and reboots as the plan asks.
func (in *Installer) Install(ctx context.Context, plan Plan) (Report, error) {
	report := Report{Files: map[string]string{}}

	if plan.SkipBootConfig {
		report.add("boot-config", plan.BootConfigPath, StepSkipped, "")
	} else if err := in.installBootConfig(plan, &report); err != nil {
		return report, err
	}

	if plan.SkipAsound {
		report.add("asound", plan.AsoundPath, StepSkipped, "")
	} else {
		content := RenderAsoundConf(plan.Card)
		report.Files[plan.AsoundPath] = content
		if err := in.writeStep(plan, &report, "asound", plan.AsoundPath, []byte(content), true); err != nil {
			return report, err
		}
	}

	unitData, err := systemd.RenderUnit(plan.Unit)
	if err != nil {
		return report, fmt.Errorf("failed to render unit: %w", err)
	}
	unitPath := plan.UnitPath()
	report.Files[unitPath] = string(unitData)
	if err := in.writeStep(plan, &report, "unit-file", unitPath, unitData, false); err != nil {
		return report, err
	}

	if err := in.systemdSteps(ctx, plan, &report, unitPath); err != nil {
		return report, err
	}
	return report, nil
}

func (in *Installer) installBootConfig(plan Plan, report *Report) error {
	path := plan.resolve(plan.BootConfigPath)
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read boot config %s: %w", plan.BootConfigPath, err)
	}

	updated, changes := ApplyBootConfig(string(original), plan.Boot)
	report.BootChanges = changes
	report.Files[plan.BootConfigPath] = updated
	for _, c := range changes {
		in.logger.Info("Boot config change", "change", c.String())
	}

	if len(changes) == 0 {
		report.add("boot-config", plan.BootConfigPath, StepUnchanged, "")
		return nil
	}
	report.RebootRequired = true
	return in.writeStep(plan, report, "boot-config", plan.BootConfigPath, []byte(updated), true)
}

// writeStep writes data to the target path unless it already has exactly that
// content. backup keeps the first original next to the file.
func (in *Installer) writeStep(plan Plan, report *Report, name, target string, data []byte, backup bool) error {
	path := plan.resolve(target)

	existing, err := os.ReadFile(path)
	if err == nil && string(existing) == string(data) {
		report.add(name, target, StepUnchanged, "")
		return nil
	}

	if plan.DryRun {
		report.add(name, target, StepPlanned, "")
		return nil
	}

	if backup && err == nil {
		bak := BackupPath(path)
		if _, statErr := os.Stat(bak); os.IsNotExist(statErr) {
			if writeErr := writeFileAtomic(bak, existing); writeErr != nil {
				return fmt.Errorf("failed to back up %s: %w", target, writeErr)
			}
			in.logger.Info("Backed up original", "path", BackupPath(target))
		}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	in.logger.Info("Wrote file", "step", name, "path", target)
	report.add(name, target, StepWritten, "")
	return nil
}

func (in *Installer) systemdSteps(ctx context.Context, plan Plan, report *Report, unitPath string) error {
	type action struct {
		name   string
		wanted bool
		run    func() error
	}
	actions := []action{
		{"daemon-reload", true, func() error { return in.units.Reload(ctx) }},
		{"enable", plan.Enable, func() error { return in.units.EnableUnit(ctx, unitPath) }},
		{"start", plan.Start, func() error { return in.units.StartService(ctx, plan.UnitName) }},
		{"reboot", plan.Reboot, func() error { return in.units.Reboot(ctx) }},
	}

	for _, a := range actions {
		if !a.wanted {
			report.add(a.name, "", StepSkipped, "")
			continue
		}
		if plan.DryRun {
			report.add(a.name, "", StepPlanned, "")
			continue
		}
		if in.units == nil {
			if a.name == "daemon-reload" && !plan.Enable && !plan.Start && !plan.Reboot {
				report.add(a.name, "", StepSkipped, ErrNoSystemd.Error())
				continue
			}
			return fmt.Errorf("%s: %w", a.name, ErrNoSystemd)
		}
		if err := a.run(); err != nil {
			return fmt.Errorf("%s failed: %w", a.name, err)
		}
		in.logger.Info("systemd step done", "step", a.name, "unit", plan.UnitName)
		report.add(a.name, "", StepDone, "")
	}
	if plan.Reboot && !plan.DryRun {
		report.RebootRequired = false
	}
	return nil
}

// Uninstall stops and disables the unit and removes its file. config.txt and
// asound.conf are left in place; their backups are reported for manual
// restore.
func (in *Installer) Uninstall(ctx context.Context, plan Plan) (Report, error) {
	var report Report
	unitPath := plan.UnitPath()

	if in.units == nil && !plan.DryRun {
		report.add("stop", "", StepSkipped, ErrNoSystemd.Error())
		report.add("disable", "", StepSkipped, ErrNoSystemd.Error())
	} else {
		for _, step := range []struct {
			name string
			run  func() error
		}{
			{"stop", func() error { return in.units.StopService(ctx, plan.UnitName) }},
			{"disable", func() error { return in.units.DisableUnit(ctx, plan.UnitName) }},
		} {
			if plan.DryRun {
				report.add(step.name, "", StepPlanned, "")
				continue
			}
			if err := step.run(); err != nil {
				// A unit that was never loaded cannot be stopped; keep going.
				in.logger.Warn("systemd step failed", "step", step.name, "error", err)
				report.add(step.name, "", StepSkipped, err.Error())
				continue
			}
			report.add(step.name, "", StepDone, "")
		}
	}

	path := plan.resolve(unitPath)
	switch _, err := os.Stat(path); {
	case os.IsNotExist(err):
		report.add("unit-file", unitPath, StepUnchanged, "not installed")
	case plan.DryRun:
		report.add("unit-file", unitPath, StepPlanned, "remove")
	default:
		if err := os.Remove(path); err != nil {
			return report, fmt.Errorf("failed to remove %s: %w", unitPath, err)
		}
		report.add("unit-file", unitPath, StepDone, "removed")
	}

	if in.units != nil && !plan.DryRun {
		if err := in.units.Reload(ctx); err != nil {
			return report, fmt.Errorf("daemon-reload failed: %w", err)
		}
		report.add("daemon-reload", "", StepDone, "")
	}

	for _, target := range []string{plan.BootConfigPath, plan.AsoundPath} {
		detail := "left in place"
		if _, err := os.Stat(BackupPath(plan.resolve(target))); err == nil {
			detail = "left in place, original at " + BackupPath(target)
		}
		report.add("keep", target, StepSkipped, detail)
	}
	return report, nil
}

// writeFileAtomic writes through a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
