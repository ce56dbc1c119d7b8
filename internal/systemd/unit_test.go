package systemd

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestRenderUnitNative(t *testing.T) {
	spec := NewUnitSpec("pi", "/home/pi/luffy",
		NativeExecStart("/usr/local/bin/luffyplayer", "/etc/luffyplayer/config.toml"),
		"/home/pi/luffy/player.log", ":0", false)

	data, err := RenderUnit(spec)
	if err != nil {
		t.Fatalf("RenderUnit: %v", err)
	}
	out := string(data)

	want := []string{
		"[Unit]\nDescription=Luffy audio player\nAfter=network.target\n",
		"[Service]\nType=simple\nUser=pi\nWorkingDirectory=/home/pi/luffy\nEnvironment=DISPLAY=:0\n",
		"ExecStart=/usr/local/bin/luffyplayer --config /etc/luffyplayer/config.toml\n",
		"Restart=on-failure\nRestartSec=5\n",
		"StandardOutput=append:/home/pi/luffy/player.log\nStandardError=append:/home/pi/luffy/player.log\n",
		"[Install]\nWantedBy=multi-user.target\n",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("unit missing %q\n---\n%s", w, out)
		}
	}
	if strings.Contains(out, "PYTHONUNBUFFERED") {
		t.Error("native unit should not set PYTHONUNBUFFERED")
	}
}

func TestRenderUnitScript(t *testing.T) {
	spec := NewUnitSpec("pi", "/home/pi/luffy",
		ScriptExecStart("venv", "luffy06.py"), "/home/pi/luffy/player.log", ":0", true)

	data, err := RenderUnit(spec)
	if err != nil {
		t.Fatalf("RenderUnit: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "ExecStart=/bin/bash -c 'source venv/bin/activate && exec python3 luffy06.py'\n") {
		t.Errorf("unexpected ExecStart in\n%s", out)
	}
	if !strings.Contains(out, "Environment=PYTHONUNBUFFERED=1\nEnvironment=DISPLAY=:0\n") {
		t.Errorf("unexpected Environment in\n%s", out)
	}
}

func TestRenderUnitRequiresExecStart(t *testing.T) {
	if _, err := RenderUnit(UnitSpec{Description: "x"}); err == nil {
		t.Error("expected error for missing ExecStart")
	}
}

func TestParseUnitRoundTrip(t *testing.T) {
	spec := NewUnitSpec("luffy", "/opt/luffy", ScriptExecStart("/opt/luffy/venv", "luffy06.py"),
		"/var/log/luffy.log", ":0", true)
	spec.Environment = append(spec.Environment, "GREETING=hello world")

	data, err := RenderUnit(spec)
	if err != nil {
		t.Fatalf("RenderUnit: %v", err)
	}
	got, err := ParseUnit(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if !reflect.DeepEqual(got, spec) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, spec)
	}
}

func TestParseUnitHandWritten(t *testing.T) {
	content := `# installed by hand
[Unit]
Description=Luffy Player
After=network.target

[Service]
Type=simple
User=pi
WorkingDirectory=/home/pi/luffy
Environment=PYTHONUNBUFFERED=1
Environment=DISPLAY=:0
ExecStart=/bin/bash -c 'source venv/bin/activate && exec python3 luffy06.py'
Restart=on-failure
RestartSec=5s
StandardOutput=append:/home/pi/luffy/player.log
StandardError=append:/home/pi/luffy/player.log

[Install]
WantedBy=multi-user.target
`
	spec, err := ParseUnit(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}

	tests := []struct {
		field string
		got   any
		want  any
	}{
		{"Restart", spec.Restart, "on-failure"},
		{"RestartSec", spec.RestartSec, 5},
		{"LogFile", spec.LogFile, "/home/pi/luffy/player.log"},
		{"WantedBy", spec.WantedBy, "multi-user.target"},
		{"Environment", len(spec.Environment), 2},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}
}

func TestParseUnitBadRestartSec(t *testing.T) {
	content := "[Service]\nExecStart=/bin/true\nRestartSec=soon\n"
	if _, err := ParseUnit(strings.NewReader(content)); err == nil {
		t.Error("expected error for invalid RestartSec")
	}
}
