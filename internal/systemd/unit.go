package systemd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// Defaults for the player unit.
const (
	DefaultUnitName    = "luffy-player.service"
	DefaultDescription = "Luffy audio player"
	DefaultAfter       = "network.target"
	DefaultWantedBy    = "multi-user.target"
	DefaultRestart     = "on-failure"
	DefaultRestartSec  = 5
)

// UnitSpec describes the player service unit.
type UnitSpec struct {
	Description      string
	After            string
	Type             string
	User             string
	WorkingDirectory string
	Environment      []string
	ExecStart        string
	Restart          string
	RestartSec       int
	// LogFile receives stdout and stderr in append mode. Empty leaves both
	// on the journal.
	LogFile  string
	WantedBy string
}

// NativeExecStart runs the Go player binary with an explicit config file.
func NativeExecStart(exe, configPath string) string {
	if configPath == "" {
		return exe
	}
	return fmt.Sprintf("%s --config %s", exe, configPath)
}

// ScriptExecStart activates venv and runs a Python script in it.
func ScriptExecStart(venv, script string) string {
	activate := filepath.Join(venv, "bin", "activate")
	return fmt.Sprintf("/bin/bash -c 'source %s && exec python3 %s'", activate, script)
}

// NewUnitSpec fills a spec with the player defaults. display is exported as
// DISPLAY; python adds PYTHONUNBUFFERED so print output reaches the log file
// without delay.
func NewUnitSpec(user, workDir, execStart, logFile, display string, python bool) UnitSpec {
	var env []string
	if python {
		env = append(env, "PYTHONUNBUFFERED=1")
	}
	if display != "" {
		env = append(env, "DISPLAY="+display)
	}
	return UnitSpec{
		Description:      DefaultDescription,
		After:            DefaultAfter,
		Type:             "simple",
		User:             user,
		WorkingDirectory: workDir,
		Environment:      env,
		ExecStart:        execStart,
		Restart:          DefaultRestart,
		RestartSec:       DefaultRestartSec,
		LogFile:          logFile,
		WantedBy:         DefaultWantedBy,
	}
}

// Validate reports fields the unit cannot do without.
func (s UnitSpec) Validate() error {
	if strings.TrimSpace(s.ExecStart) == "" {
		return fmt.Errorf("unit has no ExecStart")
	}
	if s.RestartSec < 0 {
		return fmt.Errorf("negative RestartSec %d", s.RestartSec)
	}
	return nil
}

// Options converts s to ordered unit options.
func (s UnitSpec) Options() []*unit.UnitOption {
	opts := []*unit.UnitOption{}
	add := func(section, name, value string) {
		if value != "" {
			opts = append(opts, unit.NewUnitOption(section, name, value))
		}
	}

	add("Unit", "Description", s.Description)
	add("Unit", "After", s.After)

	add("Service", "Type", s.Type)
	add("Service", "User", s.User)
	add("Service", "WorkingDirectory", s.WorkingDirectory)
	for _, env := range s.Environment {
		add("Service", "Environment", quoteEnv(env))
	}
	add("Service", "ExecStart", s.ExecStart)
	add("Service", "Restart", s.Restart)
	if s.Restart != "" {
		add("Service", "RestartSec", strconv.Itoa(s.RestartSec))
	}
	if s.LogFile != "" {
		add("Service", "StandardOutput", "append:"+s.LogFile)
		add("Service", "StandardError", "append:"+s.LogFile)
	}

	add("Install", "WantedBy", s.WantedBy)
	return opts
}

// RenderUnit serializes spec as a unit file.
func RenderUnit(spec UnitSpec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return io.ReadAll(unit.Serialize(spec.Options()))
}

// ParseUnit reads a unit file back into a UnitSpec. Unknown keys are ignored.
func ParseUnit(r io.Reader) (UnitSpec, error) {
	opts, err := unit.DeserializeOptions(r)
	if err != nil {
		return UnitSpec{}, fmt.Errorf("failed to parse unit: %w", err)
	}

	var s UnitSpec
	for _, o := range opts {
		switch o.Section + "." + o.Name {
		case "Unit.Description":
			s.Description = o.Value
		case "Unit.After":
			s.After = o.Value
		case "Service.Type":
			s.Type = o.Value
		case "Service.User":
			s.User = o.Value
		case "Service.WorkingDirectory":
			s.WorkingDirectory = o.Value
		case "Service.Environment":
			s.Environment = append(s.Environment, unquoteEnv(o.Value))
		case "Service.ExecStart":
			s.ExecStart = o.Value
		case "Service.Restart":
			s.Restart = o.Value
		case "Service.RestartSec":
			sec, err := parseSeconds(o.Value)
			if err != nil {
				return UnitSpec{}, err
			}
			s.RestartSec = sec
		case "Service.StandardOutput", "Service.StandardError":
			if path, ok := strings.CutPrefix(o.Value, "append:"); ok {
				s.LogFile = path
			}
		case "Install.WantedBy":
			s.WantedBy = o.Value
		}
	}
	return s, nil
}

// parseSeconds accepts "5" and "5s", the forms systemd writes for RestartSec.
func parseSeconds(v string) (int, error) {
	sec, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "s"))
	if err != nil {
		return 0, fmt.Errorf("invalid RestartSec %q: %w", v, err)
	}
	return sec, nil
}

func quoteEnv(kv string) string {
	if strings.ContainsAny(kv, " \t") {
		return strconv.Quote(kv)
	}
	return kv
}

func unquoteEnv(v string) string {
	if s, err := strconv.Unquote(v); err == nil {
		return s
	}
	return v
}
