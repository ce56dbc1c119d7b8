package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeTempConfig(t, `
[library]
dir = "/srv/music"
extensions = ["flac", "mp3"]
watch = false

[player]
volume = 70
autoplay = true

[display]
driver = "png"
rotation = 180
`)

	opts := &Options{Config: path, LibraryWatch: true, PlayerVolume: 50}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.LibraryDir != "/srv/music" {
		t.Errorf("LibraryDir = %q, want /srv/music", opts.LibraryDir)
	}
	if opts.LibraryExtensions != "flac,mp3" {
		t.Errorf("LibraryExtensions = %q, want flac,mp3", opts.LibraryExtensions)
	}
	if opts.LibraryWatch {
		t.Error("LibraryWatch should be false")
	}
	if opts.PlayerVolume != 70 {
		t.Errorf("PlayerVolume = %d, want 70", opts.PlayerVolume)
	}
	if !opts.PlayerAutoplay {
		t.Error("PlayerAutoplay should be true")
	}
	if opts.DisplayDriver != "png" || opts.DisplayRotation != 180 {
		t.Errorf("display = %q/%d, want png/180", opts.DisplayDriver, opts.DisplayRotation)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("LUFFYPLAYER_SERVICE_USER", "luffy")
	t.Setenv("LUFFYPLAYER_PLAYER_VOLUME", "35")
	t.Setenv("LUFFYPLAYER_LIBRARY_WATCH", "false")
	t.Setenv("LUFFYPLAYER_PLAYER_VOLUME_STEP", "not-a-number")

	opts := &Options{ServiceUser: "pi", LibraryWatch: true, PlayerVolumeStep: 5}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.ServiceUser != "luffy" {
		t.Errorf("ServiceUser = %q, want luffy", opts.ServiceUser)
	}
	if opts.PlayerVolume != 35 {
		t.Errorf("PlayerVolume = %d, want 35", opts.PlayerVolume)
	}
	if opts.LibraryWatch {
		t.Error("LibraryWatch should be false")
	}
	if opts.PlayerVolumeStep != 5 {
		t.Errorf("unparseable env should leave default, got %d", opts.PlayerVolumeStep)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeTempConfig(t, `
[service]
user = "from-file"
working_directory = "/opt/file"
log_file = "/var/log/file.log"
`)
	t.Setenv("LUFFYPLAYER_SERVICE_WORKING_DIRECTORY", "/opt/env")
	t.Setenv("LUFFYPLAYER_SERVICE_USER", "from-env")

	cmd := &cobra.Command{Use: "test"}
	opts := &Options{Config: path}
	cmd.Flags().StringVar(&opts.ServiceUser, "service-user", "pi", "")
	if err := cmd.Flags().Set("service-user", "from-flag"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"ServiceUser", opts.ServiceUser, "from-flag"},
		{"ServiceWorkDir", opts.ServiceWorkDir, "/opt/env"},
		{"ServiceLogFile", opts.ServiceLogFile, "/var/log/file.log"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"Port", "port"},
		{"LoggingLevel", "logging-level"},
		{"DisplaySpiSpeedMhz", "display-spi-speed-mhz"},
		{"FeaturesLedControl", "features-led-control"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.field); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"player": map[string]any{
			"volume": int64(60),
		},
		"top": "level",
	}

	tests := []struct {
		path string
		want any
	}{
		{"player.volume", int64(60)},
		{"top", "level"},
		{"player.missing", nil},
		{"missing.volume", nil},
		{"top.deeper", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	var s struct {
		Str   string
		Flag  bool
		Num   int
		Ratio float64
		List  []string
	}
	v := reflect.ValueOf(&s).Elem()

	setFieldValueFromString(v.Field(0), "text")
	setFieldValueFromString(v.Field(1), "true")
	setFieldValueFromString(v.Field(2), "-12")
	setFieldValueFromString(v.Field(3), "0.3")
	setFieldValueFromString(v.Field(4), " a, b ,,c ")

	if s.Str != "text" || !s.Flag || s.Num != -12 || s.Ratio != 0.3 {
		t.Errorf("unexpected values: %+v", s)
	}
	if !reflect.DeepEqual(s.List, []string{"a", "b", "c"}) {
		t.Errorf("List = %v, want [a b c]", s.List)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &Options{Config: filepath.Join(t.TempDir(), "absent.toml"), Port: ":8090"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("Port = %q, want :8090", opts.Port)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeTempConfig(t, "[player\nvolume = ")
	if err := LoadConfig(&Options{Config: path}, nil); err == nil {
		t.Error("expected an error for invalid TOML")
	}
}

func TestOptionsHelpers(t *testing.T) {
	opts := &Options{
		LibraryExtensions: ".mp3, WAV,,m4a",
		LoggingLevel:      "warn",
		LoggingPlayer:     "debug",
	}

	if got := opts.Extensions(); !reflect.DeepEqual(got, []string{"mp3", "WAV", "m4a"}) {
		t.Errorf("Extensions() = %v", got)
	}
	if got := opts.RefreshInterval().Seconds(); got != 1 {
		t.Errorf("RefreshInterval() default = %vs, want 1s", got)
	}

	cfg := opts.LoggingConfig()
	if cfg.Level != "warn" || cfg.Modules["player"] != "debug" {
		t.Errorf("LoggingConfig() = %+v", cfg)
	}
}

func TestLoadConfigListSeparator(t *testing.T) {
	path := writeTempConfig(t, `
[library]
extensions = ["flac", "mp3"]

[provision]
extra_lines = ["gpio=25=op,dh", "dtparam=spi=on"]
`)
	opts := &Options{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := []string{"gpio=25=op,dh", "dtparam=spi=on"}
	if got := opts.BootLines(); !reflect.DeepEqual(got, want) {
		t.Errorf("BootLines() = %q, want %q", got, want)
	}
	if opts.LibraryExtensions != "flac,mp3" {
		t.Errorf("LibraryExtensions = %q, want flac,mp3", opts.LibraryExtensions)
	}
}
