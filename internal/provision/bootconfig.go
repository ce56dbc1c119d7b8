// Package provision prepares a Raspberry Pi for the player: firmware config,
// ALSA routing and the systemd unit, plus acceptance checks for all three.
package provision

import (
	"fmt"
	"strings"
)

// Boot config defaults.
const (
	DefaultDACOverlay = "hifiberry-dac"
	audioParam        = "dtparam=audio="
	audioOff          = "dtparam=audio=off"
	noAudioParam      = "noaudio"
)

// DefaultExtraLines drives the amplifier enable pin of Pirate Audio boards high.
var DefaultExtraLines = []string{"gpio=25=op,dh"}

// vc4Overlays are the KMS drivers that expose HDMI audio unless told otherwise.
var vc4Overlays = []string{"vc4-kms-v3d", "vc4-fkms-v3d"}

// BootOptions selects what ApplyBootConfig ensures.
type BootOptions struct {
	DACOverlay string
	ExtraLines []string
}

// DefaultBootOptions returns the options for a HifiBerry-compatible DAC.
func DefaultBootOptions() BootOptions {
	return BootOptions{DACOverlay: DefaultDACOverlay, ExtraLines: DefaultExtraLines}
}

// Change describes one edit made to config.txt.
type Change struct {
	Action string `json:"action" example:"modified" doc:"modified or appended"`
	Before string `json:"before,omitempty" doc:"Original line"`
	After  string `json:"after" doc:"Resulting line"`
}

func (c Change) String() string {
	if c.Before == "" {
		return fmt.Sprintf("%s: %s", c.Action, c.After)
	}
	return fmt.Sprintf("%s: %s -> %s", c.Action, c.Before, c.After)
}

// BootStatus summarizes the audio-relevant state of a config.txt.
type BootStatus struct {
	HDMIAudioDisabled bool     `json:"hdmi_audio_disabled"`
	DACOverlayActive  bool     `json:"dac_overlay_active"`
	MissingLines      []string `json:"missing_lines,omitempty"`
}

// configLine is an active (uncommented, non-blank) line with its section state.
type configLine struct {
	index int
	text  string
	inAll bool
}

func scanConfig(lines []string) (active []configLine, lastAll bool) {
	inAll := true
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inAll = strings.EqualFold(line, "[all]")
			continue
		}
		active = append(active, configLine{index: i, text: line, inAll: inAll})
	}
	return active, inAll
}

// overlayName splits "dtoverlay=name,p1,p2" into name and params.
func overlayName(line string) (name string, params []string, ok bool) {
	rest, ok := strings.CutPrefix(line, "dtoverlay=")
	if !ok {
		return "", nil, false
	}
	parts := strings.Split(rest, ",")
	return strings.TrimSpace(parts[0]), parts[1:], true
}

func isVC4(name string) bool {
	for _, o := range vc4Overlays {
		if strings.HasPrefix(name, o) {
			return true
		}
	}
	return false
}

func hasParam(params []string, want string) bool {
	for _, p := range params {
		if strings.TrimSpace(p) == want {
			return true
		}
	}
	return false
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// ApplyBootConfig disables onboard and HDMI audio and enables the DAC
// overlay. It returns the new content and the edits made; applying it to its
// own output makes no further changes.
func ApplyBootConfig(content string, opts BootOptions) (string, []Change) {
	lines := splitLines(content)
	active, lastAll := scanConfig(lines)

	var changes []Change
	audioSeen := false
	present := map[string]bool{}

	for _, cl := range active {
		switch {
		case strings.HasPrefix(cl.text, audioParam):
			audioSeen = true
			if cl.text != audioOff {
				changes = append(changes, Change{Action: "modified", Before: cl.text, After: audioOff})
				lines[cl.index] = audioOff
			}
		default:
			if name, params, ok := overlayName(cl.text); ok && isVC4(name) && !hasParam(params, noAudioParam) {
				updated := cl.text + "," + noAudioParam
				changes = append(changes, Change{Action: "modified", Before: cl.text, After: updated})
				lines[cl.index] = updated
			}
		}
		if cl.inAll {
			present[cl.text] = true
		}
	}

	var appends []string
	if !audioSeen {
		appends = append(appends, audioOff)
	}
	if opts.DACOverlay != "" {
		if line := "dtoverlay=" + opts.DACOverlay; !present[line] {
			appends = append(appends, line)
		}
	}
	for _, extra := range opts.ExtraLines {
		if extra = strings.TrimSpace(extra); extra != "" && !present[extra] {
			appends = append(appends, extra)
		}
	}

	if len(appends) > 0 {
		if !lastAll {
			lines = append(lines, "", "[all]")
		}
		for _, line := range appends {
			lines = append(lines, line)
			changes = append(changes, Change{Action: "appended", After: line})
		}
	}

	if len(lines) == 0 {
		return "", changes
	}
	return strings.Join(lines, "\n") + "\n", changes
}

// BootConfigStatus inspects config.txt without changing it.
func BootConfigStatus(content string, opts BootOptions) BootStatus {
	active, _ := scanConfig(splitLines(content))

	audioOn := false
	hdmiAudio := false
	present := map[string]bool{}
	for _, cl := range active {
		if v, ok := strings.CutPrefix(cl.text, audioParam); ok {
			audioOn = strings.TrimSpace(v) == "on"
		}
		if name, params, ok := overlayName(cl.text); ok && isVC4(name) && !hasParam(params, noAudioParam) {
			hdmiAudio = true
		}
		if cl.inAll {
			present[cl.text] = true
		}
	}

	status := BootStatus{
		HDMIAudioDisabled: !audioOn && !hdmiAudio,
		DACOverlayActive:  opts.DACOverlay == "" || present["dtoverlay="+opts.DACOverlay],
	}
	for _, extra := range opts.ExtraLines {
		if extra = strings.TrimSpace(extra); extra != "" && !present[extra] {
			status.MissingLines = append(status.MissingLines, extra)
		}
	}
	return status
}
