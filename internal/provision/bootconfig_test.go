package provision

import (
	"reflect"
	"strings"
	"testing"
)

const stockConfig = `# For more options and information see
# http://rptl.io/configtxt

# Uncomment some or all of these to enable the optional hardware interfaces
#dtparam=i2c_arm=on
#dtparam=spi=on

# Enable audio (loads snd_bcm2835)
dtparam=audio=on

# Enable DRM VC4 V3D driver
dtoverlay=vc4-kms-v3d
max_framebuffers=2

[cm4]
otg_mode=1

[pi4]
arm_boost=1

[all]
`

func TestApplyBootConfigStock(t *testing.T) {
	got, changes := ApplyBootConfig(stockConfig, DefaultBootOptions())

	for _, want := range []string{
		"\ndtparam=audio=off\n",
		"\ndtoverlay=vc4-kms-v3d,noaudio\n",
		"[all]\ndtoverlay=hifiberry-dac\ngpio=25=op,dh\n",
		"#dtparam=spi=on\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("result missing %q\n---\n%s", want, got)
		}
	}
	if strings.Contains(got, "dtparam=audio=on") {
		t.Error("audio=on should be gone")
	}
	if strings.Count(got, "[all]") != 1 {
		t.Errorf("expected a single [all] section, got\n%s", got)
	}

	wantChanges := []Change{
		{Action: "modified", Before: "dtparam=audio=on", After: "dtparam=audio=off"},
		{Action: "modified", Before: "dtoverlay=vc4-kms-v3d", After: "dtoverlay=vc4-kms-v3d,noaudio"},
		{Action: "appended", After: "dtoverlay=hifiberry-dac"},
		{Action: "appended", After: "gpio=25=op,dh"},
	}
	if !reflect.DeepEqual(changes, wantChanges) {
		t.Errorf("changes = %+v\nwant %+v", changes, wantChanges)
	}
}

func TestApplyBootConfigIdempotent(t *testing.T) {
	inputs := map[string]string{
		"stock":        stockConfig,
		"empty":        "",
		"pi4 section":  "dtparam=audio=on\n[pi4]\ndtoverlay=hifiberry-dac\n",
		"fkms":         "dtoverlay=vc4-fkms-v3d,cma-256\n",
		"already done": "dtparam=audio=off\ndtoverlay=hifiberry-dac\ngpio=25=op,dh\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			once, _ := ApplyBootConfig(input, DefaultBootOptions())
			twice, changes := ApplyBootConfig(once, DefaultBootOptions())
			if twice != once {
				t.Errorf("second pass changed content\nfirst:\n%s\nsecond:\n%s", once, twice)
			}
			if len(changes) != 0 {
				t.Errorf("second pass reported changes: %+v", changes)
			}
		})
	}
}

func TestApplyBootConfigSections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "overlay only in pi4 section is added under all",
			input: "dtparam=audio=off\n[pi4]\ndtoverlay=hifiberry-dac\n",
			want:  "dtparam=audio=off\n[pi4]\ndtoverlay=hifiberry-dac\n\n[all]\ndtoverlay=hifiberry-dac\n",
		},
		{
			name:  "missing audio param is appended",
			input: "dtoverlay=hifiberry-dac\n",
			want:  "dtoverlay=hifiberry-dac\ndtparam=audio=off\n",
		},
		{
			name:  "commented overlay does not count",
			input: "dtparam=audio=off\n#dtoverlay=hifiberry-dac\n",
			want:  "dtparam=audio=off\n#dtoverlay=hifiberry-dac\ndtoverlay=hifiberry-dac\n",
		},
		{
			name:  "existing noaudio is kept",
			input: "dtparam=audio=off\ndtoverlay=vc4-kms-v3d,noaudio\ndtoverlay=hifiberry-dac\n",
			want:  "dtparam=audio=off\ndtoverlay=vc4-kms-v3d,noaudio\ndtoverlay=hifiberry-dac\n",
		},
	}

	opts := BootOptions{DACOverlay: "hifiberry-dac"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ApplyBootConfig(tt.input, opts)
			if got != tt.want {
				t.Errorf("got\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestBootConfigStatus(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantHDMIOff bool
		wantDAC     bool
		wantMissing []string
	}{
		{"stock", stockConfig, false, false, []string{"gpio=25=op,dh"}},
		{"vc4 without noaudio", "dtparam=audio=off\ndtoverlay=vc4-kms-v3d\ndtoverlay=hifiberry-dac\ngpio=25=op,dh\n", false, true, nil},
		{"provisioned", "dtparam=audio=off\ndtoverlay=vc4-kms-v3d,noaudio\ndtoverlay=hifiberry-dac\ngpio=25=op,dh\n", true, true, nil},
		{"dac outside all", "[pi3]\ndtoverlay=hifiberry-dac\ngpio=25=op,dh\n", true, false, []string{"gpio=25=op,dh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := BootConfigStatus(tt.content, DefaultBootOptions())
			if st.HDMIAudioDisabled != tt.wantHDMIOff {
				t.Errorf("HDMIAudioDisabled = %v, want %v", st.HDMIAudioDisabled, tt.wantHDMIOff)
			}
			if st.DACOverlayActive != tt.wantDAC {
				t.Errorf("DACOverlayActive = %v, want %v", st.DACOverlayActive, tt.wantDAC)
			}
			if !reflect.DeepEqual(st.MissingLines, tt.wantMissing) {
				t.Errorf("MissingLines = %v, want %v", st.MissingLines, tt.wantMissing)
			}
		})
	}
}

func TestApplyThenStatus(t *testing.T) {
	got, _ := ApplyBootConfig(stockConfig, DefaultBootOptions())
	st := BootConfigStatus(got, DefaultBootOptions())
	if !st.HDMIAudioDisabled || !st.DACOverlayActive || len(st.MissingLines) != 0 {
		t.Errorf("status after apply = %+v", st)
	}
}
