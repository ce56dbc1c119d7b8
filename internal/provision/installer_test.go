package provision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/smazurov/luffyplayer/internal/systemd"
)

type fakeUnits struct {
	calls    []string
	state    string
	failOn   string
	stateErr error
}

func (f *fakeUnits) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return errors.New(call + " refused")
	}
	return nil
}

func (f *fakeUnits) Reload(context.Context) error { return f.record("reload") }
func (f *fakeUnits) EnableUnit(_ context.Context, path string) error {
	return f.record("enable " + path)
}
func (f *fakeUnits) DisableUnit(_ context.Context, name string) error {
	return f.record("disable " + name)
}
func (f *fakeUnits) StartService(_ context.Context, name string) error {
	return f.record("start " + name)
}
func (f *fakeUnits) StopService(_ context.Context, name string) error {
	return f.record("stop " + name)
}
func (f *fakeUnits) Reboot(context.Context) error { return f.record("reboot") }
func (f *fakeUnits) UnitFileState(context.Context, string) (string, error) {
	return f.state, f.stateErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPlan lays out a fake target system under a temp root.
func newTestPlan(t *testing.T) Plan {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "boot/firmware/config.txt"), stockConfig)

	return Plan{
		Root:           root,
		BootConfigPath: "/boot/firmware/config.txt",
		Boot:           DefaultBootOptions(),
		AsoundPath:     "/etc/asound.conf",
		Card:           DefaultCard,
		ProcRoot:       "/proc",
		UnitDir:        "/etc/systemd/system",
		UnitName:       systemd.DefaultUnitName,
		Unit: systemd.NewUnitSpec("pi", "/home/pi/luffy",
			systemd.NativeExecStart("/usr/local/bin/luffyplayer", "/etc/luffyplayer/config.toml"),
			"/home/pi/luffy/player.log", ":0", false),
		Enable: true,
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func stepStatuses(r Report) map[string]string {
	out := map[string]string{}
	for _, s := range r.Steps {
		out[s.Name] = s.Status
	}
	return out
}

func TestInstall(t *testing.T) {
	plan := newTestPlan(t)
	units := &fakeUnits{}

	report, err := NewInstaller(units, testLogger()).Install(context.Background(), plan)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	boot := mustRead(t, filepath.Join(plan.Root, plan.BootConfigPath))
	if !strings.Contains(boot, "dtoverlay=hifiberry-dac") {
		t.Errorf("boot config not updated:\n%s", boot)
	}
	if got := mustRead(t, filepath.Join(plan.Root, plan.BootConfigPath+".luffyplayer.bak")); got != stockConfig {
		t.Error("backup does not hold the original config")
	}
	if got := mustRead(t, filepath.Join(plan.Root, "/etc/asound.conf")); got != RenderAsoundConf(DefaultCard) {
		t.Errorf("asound.conf = %q", got)
	}
	unit := mustRead(t, filepath.Join(plan.Root, "/etc/systemd/system/luffy-player.service"))
	if !strings.Contains(unit, "RestartSec=5") {
		t.Errorf("unit file:\n%s", unit)
	}

	wantCalls := []string{"reload", "enable /etc/systemd/system/luffy-player.service"}
	if !reflect.DeepEqual(units.calls, wantCalls) {
		t.Errorf("systemd calls = %v, want %v", units.calls, wantCalls)
	}
	if !report.RebootRequired {
		t.Error("changing config.txt should require a reboot")
	}

	st := stepStatuses(report)
	for name, want := range map[string]string{
		"boot-config": StepWritten, "asound": StepWritten, "unit-file": StepWritten,
		"daemon-reload": StepDone, "enable": StepDone, "start": StepSkipped, "reboot": StepSkipped,
	} {
		if st[name] != want {
			t.Errorf("step %s = %q, want %q", name, st[name], want)
		}
	}
}

func TestInstallTwiceIsUnchanged(t *testing.T) {
	plan := newTestPlan(t)
	in := NewInstaller(&fakeUnits{}, testLogger())

	if _, err := in.Install(context.Background(), plan); err != nil {
		t.Fatal(err)
	}
	report, err := in.Install(context.Background(), plan)
	if err != nil {
		t.Fatal(err)
	}

	st := stepStatuses(report)
	for _, name := range []string{"boot-config", "asound", "unit-file"} {
		if st[name] != StepUnchanged {
			t.Errorf("second install %s = %q, want unchanged", name, st[name])
		}
	}
	if report.RebootRequired {
		t.Error("unchanged config should not require a reboot")
	}
	if got := mustRead(t, filepath.Join(plan.Root, plan.BootConfigPath+".luffyplayer.bak")); got != stockConfig {
		t.Error("backup must keep the very first original")
	}
}

func TestInstallDryRun(t *testing.T) {
	plan := newTestPlan(t)
	plan.DryRun = true
	plan.Start = true
	plan.Reboot = true

	report, err := NewInstaller(nil, testLogger()).Install(context.Background(), plan)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if got := mustRead(t, filepath.Join(plan.Root, plan.BootConfigPath)); got != stockConfig {
		t.Error("dry run modified config.txt")
	}
	if _, err := os.Stat(filepath.Join(plan.Root, "/etc/asound.conf")); !os.IsNotExist(err) {
		t.Error("dry run wrote asound.conf")
	}
	if !strings.Contains(report.Files["/etc/systemd/system/luffy-player.service"], "ExecStart=") {
		t.Error("dry run should still render the unit")
	}
	for _, s := range report.Steps {
		if s.Status == StepWritten || s.Status == StepDone {
			t.Errorf("dry run step %s = %s", s.Name, s.Status)
		}
	}
}

func TestInstallWithoutSystemd(t *testing.T) {
	plan := newTestPlan(t)

	_, err := NewInstaller(nil, testLogger()).Install(context.Background(), plan)
	if !errors.Is(err, ErrNoSystemd) {
		t.Fatalf("err = %v, want ErrNoSystemd", err)
	}

	plan.Enable = false
	if _, err := NewInstaller(nil, testLogger()).Install(context.Background(), plan); err != nil {
		t.Errorf("files-only install without systemd failed: %v", err)
	}
}

func TestInstallMissingBootConfig(t *testing.T) {
	plan := newTestPlan(t)
	plan.BootConfigPath = "/boot/config.txt"

	if _, err := NewInstaller(&fakeUnits{}, testLogger()).Install(context.Background(), plan); err == nil {
		t.Error("expected error for missing config.txt")
	}

	plan.SkipBootConfig = true
	if _, err := NewInstaller(&fakeUnits{}, testLogger()).Install(context.Background(), plan); err != nil {
		t.Errorf("skipping boot config should succeed: %v", err)
	}
}

func TestInstallSystemdFailure(t *testing.T) {
	plan := newTestPlan(t)
	units := &fakeUnits{failOn: "enable"}

	if _, err := NewInstaller(units, testLogger()).Install(context.Background(), plan); err == nil {
		t.Error("expected enable failure to surface")
	}
}

func TestUninstall(t *testing.T) {
	plan := newTestPlan(t)
	units := &fakeUnits{}
	in := NewInstaller(units, testLogger())

	if _, err := in.Install(context.Background(), plan); err != nil {
		t.Fatal(err)
	}
	units.calls = nil

	report, err := in.Uninstall(context.Background(), plan)
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if _, err := os.Stat(filepath.Join(plan.Root, plan.UnitPath())); !os.IsNotExist(err) {
		t.Error("unit file still present")
	}
	wantCalls := []string{"stop luffy-player.service", "disable luffy-player.service", "reload"}
	if !reflect.DeepEqual(units.calls, wantCalls) {
		t.Errorf("calls = %v, want %v", units.calls, wantCalls)
	}
	if !strings.Contains(mustRead(t, filepath.Join(plan.Root, plan.BootConfigPath)), "hifiberry-dac") {
		t.Error("uninstall must leave config.txt alone")
	}

	var keep []Step
	for _, s := range report.Steps {
		if s.Name == "keep" {
			keep = append(keep, s)
		}
	}
	if len(keep) != 2 || !strings.Contains(keep[0].Detail, ".luffyplayer.bak") {
		t.Errorf("keep steps = %+v", keep)
	}
}
