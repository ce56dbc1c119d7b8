package provision

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

const hifiberryCards = ` 0 [sndrpihifiberry]: HifiberryDac - snd_rpi_hifiberry_dac
                      snd_rpi_hifiberry_dac
`

const hdmiCards = ` 0 [vc4hdmi0       ]: vc4-hdmi - vc4-hdmi-0
                      vc4-hdmi-0
 1 [sndrpihifiberry]: HifiberryDac - snd_rpi_hifiberry_dac
                      snd_rpi_hifiberry_dac
`

func resultsByName(results []CheckResult) map[string]CheckResult {
	out := map[string]CheckResult{}
	for _, r := range results {
		out[r.Name] = r
	}
	return out
}

func TestRunChecksAfterInstall(t *testing.T) {
	plan := newTestPlan(t)
	if _, err := NewInstaller(&fakeUnits{}, testLogger()).Install(context.Background(), plan); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(plan.Root, "proc/asound/cards"), hifiberryCards)

	results := RunChecks(context.Background(), plan, &fakeUnits{state: "enabled"})
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	for _, r := range results {
		if r.Status != CheckPass {
			t.Errorf("%s = %s (%s), want pass", r.Name, r.Status, r.Detail)
		}
	}
	if Failed(results) {
		t.Error("Failed() = true for all-pass results")
	}
}

func TestRunChecksBeforeInstall(t *testing.T) {
	plan := newTestPlan(t)
	mustWrite(t, filepath.Join(plan.Root, "proc/asound/cards"), hdmiCards)

	got := resultsByName(RunChecks(context.Background(), plan, nil))

	tests := []struct {
		name string
		want CheckStatus
	}{
		{"boot-config", CheckFail},
		{"hdmi-audio", CheckFail},
		{"alsa-default", CheckFail},
		{"alsa-card", CheckPass},
		{"unit-file", CheckFail},
		{"unit-enabled", CheckSkip},
	}
	for _, tt := range tests {
		if got[tt.name].Status != tt.want {
			t.Errorf("%s = %s (%s), want %s", tt.name, got[tt.name].Status, got[tt.name].Detail, tt.want)
		}
	}
	if got["boot-config"].Detail == "" {
		t.Error("failed check should explain itself")
	}
}

func TestCheckUnitEnabled(t *testing.T) {
	tests := []struct {
		name  string
		units UnitStateReader
		want  CheckStatus
	}{
		{"enabled", &fakeUnits{state: "enabled"}, CheckPass},
		{"disabled", &fakeUnits{state: "disabled"}, CheckFail},
		{"bus error", &fakeUnits{stateErr: errors.New("no such unit")}, CheckFail},
		{"no bus", nil, CheckSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkUnitEnabled(context.Background(), "luffy-player.service", tt.units); got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestCheckUnitFileWrongRestart(t *testing.T) {
	plan := newTestPlan(t)
	mustWrite(t, filepath.Join(plan.Root, plan.UnitPath()),
		"[Service]\nExecStart=/bin/true\nRestart=always\nRestartSec=1\n[Install]\nWantedBy=multi-user.target\n")

	if got := checkUnitFile(plan); got.Status != CheckFail {
		t.Errorf("status = %s, want fail", got.Status)
	}
}

func TestFailedIgnoresSkip(t *testing.T) {
	results := []CheckResult{{Name: "a", Status: CheckPass}, {Name: "b", Status: CheckSkip}}
	if Failed(results) {
		t.Error("skip must not count as failure")
	}
	if !Failed(append(results, CheckResult{Name: "c", Status: CheckFail})) {
		t.Error("fail must count")
	}
}
