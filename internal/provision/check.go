package provision

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/smazurov/luffyplayer/internal/audio"
	"github.com/smazurov/luffyplayer/internal/systemd"
)

// CheckStatus is the outcome of a single acceptance check.
type CheckStatus string

// Check outcomes.
const (
	CheckPass CheckStatus = "pass"
	CheckFail CheckStatus = "fail"
	CheckSkip CheckStatus = "skip"
)

// CheckResult is one acceptance check.
type CheckResult struct {
	Name   string      `json:"name" example:"boot-config" doc:"Check identifier"`
	Status CheckStatus `json:"status" example:"pass" enum:"pass,fail,skip" doc:"Outcome"`
	Detail string      `json:"detail,omitempty" doc:"Why the check did not pass"`
}

// UnitStateReader reports whether a unit is enabled.
type UnitStateReader interface {
	UnitFileState(ctx context.Context, name string) (string, error)
}

// RunChecks verifies that the boot config, ALSA routing and unit of plan are
// in effect. units may be nil, in which case the enablement check is skipped.
func RunChecks(ctx context.Context, plan Plan, units UnitStateReader) []CheckResult {
	cards, cardsErr := audio.ListCards(plan.resolve(plan.ProcRoot))

	return []CheckResult{
		checkBootConfig(plan),
		checkHDMIAudio(cards, cardsErr),
		checkAlsaDefault(plan),
		checkAlsaCard(plan.Card, cards, cardsErr),
		checkUnitFile(plan),
		checkUnitEnabled(ctx, plan.UnitName, units),
	}
}

// Failed reports whether any result failed. Skipped checks do not count.
func Failed(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == CheckFail {
			return true
		}
	}
	return false
}

func pass(name string) CheckResult { return CheckResult{Name: name, Status: CheckPass} }

func fail(name, format string, args ...any) CheckResult {
	return CheckResult{Name: name, Status: CheckFail, Detail: fmt.Sprintf(format, args...)}
}

func skip(name, detail string) CheckResult {
	return CheckResult{Name: name, Status: CheckSkip, Detail: detail}
}

func checkBootConfig(plan Plan) CheckResult {
	const name = "boot-config"
	data, err := os.ReadFile(plan.resolve(plan.BootConfigPath))
	if err != nil {
		return fail(name, "cannot read %s: %v", plan.BootConfigPath, err)
	}

	st := BootConfigStatus(string(data), plan.Boot)
	var problems []string
	if !st.HDMIAudioDisabled {
		problems = append(problems, "HDMI audio is enabled")
	}
	if !st.DACOverlayActive {
		problems = append(problems, "dtoverlay="+plan.Boot.DACOverlay+" is missing")
	}
	for _, line := range st.MissingLines {
		problems = append(problems, line+" is missing")
	}
	if len(problems) > 0 {
		return fail(name, "%s", strings.Join(problems, "; "))
	}
	return pass(name)
}

func checkHDMIAudio(cards []audio.Card, cardsErr error) CheckResult {
	const name = "hdmi-audio"
	if cardsErr != nil {
		return fail(name, "%v", cardsErr)
	}
	for _, c := range cards {
		if c.IsHDMI() {
			return fail(name, "card %d (%s) is an HDMI output; reboot after provisioning", c.Index, c.ID)
		}
	}
	return pass(name)
}

func checkAlsaDefault(plan Plan) CheckResult {
	const name = "alsa-default"
	data, err := os.ReadFile(plan.resolve(plan.AsoundPath))
	if err != nil {
		return fail(name, "cannot read %s: %v", plan.AsoundPath, err)
	}
	pcm, ctl := ParseAsoundDefaults(string(data))
	if pcm != plan.Card || ctl != plan.Card {
		return fail(name, "default pcm=%q ctl=%q, want %q", pcm, ctl, plan.Card)
	}
	return pass(name)
}

func checkAlsaCard(card string, cards []audio.Card, cardsErr error) CheckResult {
	const name = "alsa-card"
	if cardsErr != nil {
		return fail(name, "%v", cardsErr)
	}
	if _, ok := audio.FindCard(cards, card); !ok {
		ids := make([]string, len(cards))
		for i, c := range cards {
			ids[i] = c.ID
		}
		return fail(name, "card %q not present (have %s)", card, strings.Join(ids, ", "))
	}
	return pass(name)
}

func checkUnitFile(plan Plan) CheckResult {
	const name = "unit-file"
	f, err := os.Open(plan.resolve(plan.UnitPath()))
	if err != nil {
		return fail(name, "cannot open %s: %v", plan.UnitPath(), err)
	}
	defer f.Close()

	spec, err := systemd.ParseUnit(f)
	if err != nil {
		return fail(name, "%v", err)
	}
	wantSec := plan.Unit.RestartSec
	if spec.Restart != systemd.DefaultRestart || spec.RestartSec != wantSec {
		return fail(name, "Restart=%s RestartSec=%d, want %s and %d",
			spec.Restart, spec.RestartSec, systemd.DefaultRestart, wantSec)
	}
	if spec.WantedBy != systemd.DefaultWantedBy {
		return fail(name, "WantedBy=%s, want %s", spec.WantedBy, systemd.DefaultWantedBy)
	}
	return pass(name)
}

func checkUnitEnabled(ctx context.Context, unitName string, units UnitStateReader) CheckResult {
	const name = "unit-enabled"
	if units == nil {
		return skip(name, "systemd bus not reachable")
	}
	state, err := units.UnitFileState(ctx, unitName)
	if err != nil {
		return fail(name, "%v", err)
	}
	if state != "enabled" {
		return fail(name, "UnitFileState=%s", state)
	}
	return pass(name)
}
