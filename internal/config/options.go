package config

import (
	"time"

	"github.com/smazurov/luffyplayer/internal/logging"
)

// Options is the flat option set shared by the daemon and every subcommand.
// humacli turns each field into a persistent flag; LoadConfig then layers the
// TOML file (dotted toml tag) and LUFFYPLAYER_* environment (env tag) beneath
// any flag set explicitly on the command line.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/luffyplayer/config.toml"`

	// HTTP API
	Port         string `help:"Port to listen on, empty disables the API" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	AuthUsername string `help:"Basic auth username" default:"" toml:"server.auth_username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"server.auth_password" env:"AUTH_PASSWORD"`

	// Library
	LibraryDir        string `help:"Directory with audio files" default:"audio_library" toml:"library.dir" env:"LIBRARY_DIR"`
	LibraryExtensions string `help:"Comma-separated audio file extensions, in play order" default:"mp3,wav,m4a,aac" toml:"library.extensions" env:"LIBRARY_EXTENSIONS"`
	LibraryWatch      bool   `help:"Rescan the library when files change" default:"true" toml:"library.watch" env:"LIBRARY_WATCH"`

	// Player
	PlayerVolume        int    `help:"Initial volume (0-100)" default:"50" toml:"player.volume" env:"PLAYER_VOLUME"`
	PlayerVolumeStep    int    `help:"Volume change per button press" default:"5" toml:"player.volume_step" env:"PLAYER_VOLUME_STEP"`
	PlayerAutoplay      bool   `help:"Start playing on boot instead of waiting for A" default:"false" toml:"player.autoplay" env:"PLAYER_AUTOPLAY"`
	PlayerRefreshMs     int    `help:"Display refresh interval while playing" default:"1000" toml:"player.refresh_ms" env:"PLAYER_REFRESH_MS"`
	PlayerRememberState bool   `help:"Restore volume and track after restart" default:"false" toml:"player.remember_state" env:"PLAYER_REMEMBER_STATE"`
	PlayerStateFile     string `help:"Where remembered state is kept" default:"player_state.toml" toml:"player.state_file" env:"PLAYER_STATE_FILE"`

	// Engine
	EngineBackend     string `help:"Playback backend (mpv, mpd)" default:"mpv" toml:"engine.backend" env:"ENGINE_BACKEND"`
	EngineMpvPath     string `help:"mpv binary" default:"mpv" toml:"engine.mpv_path" env:"ENGINE_MPV_PATH"`
	EngineMpvSocket   string `help:"mpv JSON IPC socket path" default:"/tmp/luffyplayer-mpv.sock" toml:"engine.mpv_socket" env:"ENGINE_MPV_SOCKET"`
	EngineAudioDevice string `help:"mpv --audio-device value, empty uses the ALSA default" default:"" toml:"engine.audio_device" env:"ENGINE_AUDIO_DEVICE"`
	EngineMpdAddress  string `help:"MPD address" default:"localhost:6600" toml:"engine.mpd_address" env:"ENGINE_MPD_ADDRESS"`
	EngineMpdPassword string `help:"MPD password" default:"" toml:"engine.mpd_password" env:"ENGINE_MPD_PASSWORD"`
	EngineMpdMusicDir string `help:"MPD music_directory, tracks are addressed relative to it" default:"/var/lib/mpd/music" toml:"engine.mpd_music_dir" env:"ENGINE_MPD_MUSIC_DIR"`

	// Display
	DisplayDriver       string `help:"Display driver (st7789, png, none)" default:"st7789" toml:"display.driver" env:"DISPLAY_DRIVER"`
	DisplaySpiPort      string `help:"SPI port name" default:"SPI0.1" toml:"display.spi_port" env:"DISPLAY_SPI_PORT"`
	DisplaySpiSpeedMhz  int    `help:"SPI clock in MHz" default:"80" toml:"display.spi_speed_mhz" env:"DISPLAY_SPI_SPEED_MHZ"`
	DisplayDcPin        string `help:"Data/command GPIO" default:"GPIO9" toml:"display.dc_pin" env:"DISPLAY_DC_PIN"`
	DisplayBacklightPin string `help:"Backlight GPIO" default:"GPIO13" toml:"display.backlight_pin" env:"DISPLAY_BACKLIGHT_PIN"`
	DisplayRotation     int    `help:"Panel rotation in degrees (0, 90, 180, 270)" default:"90" toml:"display.rotation" env:"DISPLAY_ROTATION"`
	DisplayPngPath      string `help:"Output file for the png driver" default:"frame.png" toml:"display.png_path" env:"DISPLAY_PNG_PATH"`
	DisplayFont         string `help:"Large font" default:"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf" toml:"display.font" env:"DISPLAY_FONT"`
	DisplaySmallFont    string `help:"Small font" default:"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf" toml:"display.small_font" env:"DISPLAY_SMALL_FONT"`

	// Buttons
	ButtonsDriver     string `help:"Button driver (gpio, none)" default:"gpio" toml:"buttons.driver" env:"BUTTONS_DRIVER"`
	ButtonsPins       string `help:"GPIOs for A,B,X,Y" default:"GPIO5,GPIO6,GPIO16,GPIO24" toml:"buttons.pins" env:"BUTTONS_PINS"`
	ButtonsDebounceMs int    `help:"Per-button debounce" default:"250" toml:"buttons.debounce_ms" env:"BUTTONS_DEBOUNCE_MS"`

	// Features
	FeaturesLedControl bool `help:"Mirror playback state on the board LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Provisioning
	BootConfigPath    string `help:"Firmware config.txt" default:"/boot/firmware/config.txt" toml:"provision.boot_config" env:"BOOT_CONFIG"`
	BootDacOverlay    string `help:"DAC device tree overlay" default:"hifiberry-dac" toml:"provision.dac_overlay" env:"BOOT_DAC_OVERLAY"`
	BootExtraLines    string `help:"Extra config.txt lines to ensure, separated by ;" default:"gpio=25=op,dh" toml:"provision.extra_lines" env:"BOOT_EXTRA_LINES" sep:";"`
	AsoundPath        string `help:"ALSA system config" default:"/etc/asound.conf" toml:"provision.asound_conf" env:"ASOUND_CONF"`
	AsoundCard        string `help:"Sound card pinned as default" default:"sndrpihifiberry" toml:"provision.card" env:"ASOUND_CARD"`
	ProcRoot          string `help:"procfs mount point" default:"/proc" toml:"provision.proc_root" env:"PROC_ROOT"`
	ServiceName       string `help:"systemd unit name" default:"luffy-player.service" toml:"service.name" env:"SERVICE_NAME"`
	ServiceUnitDir    string `help:"Directory the unit is installed to" default:"/etc/systemd/system" toml:"service.unit_dir" env:"SERVICE_UNIT_DIR"`
	ServiceUser       string `help:"User the service runs as" default:"pi" toml:"service.user" env:"SERVICE_USER"`
	ServiceWorkDir    string `help:"Service working directory" default:"/home/pi/luffy" toml:"service.working_directory" env:"SERVICE_WORKING_DIRECTORY"`
	ServiceLogFile    string `help:"File stdout and stderr are appended to" default:"/home/pi/luffy/player.log" toml:"service.log_file" env:"SERVICE_LOG_FILE"`
	ServiceDisplay    string `help:"DISPLAY passed to the service" default:":0" toml:"service.display" env:"SERVICE_DISPLAY"`
	ServiceRestartSec int    `help:"Delay before systemd restarts a failed player" default:"5" toml:"service.restart_sec" env:"SERVICE_RESTART_SEC"`
	ServiceScript     string `help:"Run this Python script instead of the built-in player" default:"" toml:"service.script" env:"SERVICE_SCRIPT"`
	ServiceVenv       string `help:"Virtualenv activated before the script" default:"venv" toml:"service.venv" env:"SERVICE_VENV"`

	// Updates
	UpdateRepository string `help:"GitHub repository for self-update" default:"smazurov/luffyplayer" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Consider prereleases" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingPlayer    string `help:"Player logging level" default:"info" toml:"logging.player" env:"LOGGING_PLAYER"`
	LoggingEngine    string `help:"Engine logging level" default:"info" toml:"logging.engine" env:"LOGGING_ENGINE"`
	LoggingDisplay   string `help:"Display logging level" default:"info" toml:"logging.display" env:"LOGGING_DISPLAY"`
	LoggingButtons   string `help:"Buttons logging level" default:"info" toml:"logging.buttons" env:"LOGGING_BUTTONS"`
	LoggingProvision string `help:"Provisioning logging level" default:"info" toml:"logging.provision" env:"LOGGING_PROVISION"`
	LoggingApi       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// LoggingConfig projects the logging options into a logging.Config.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"player":    o.LoggingPlayer,
			"engine":    o.LoggingEngine,
			"display":   o.LoggingDisplay,
			"buttons":   o.LoggingButtons,
			"provision": o.LoggingProvision,
			"api":       o.LoggingApi,
		},
	}
}

// Extensions returns the configured library extensions without dots.
func (o *Options) Extensions() []string {
	exts := SplitList(o.LibraryExtensions)
	for i, ext := range exts {
		if len(ext) > 0 && ext[0] == '.' {
			exts[i] = ext[1:]
		}
	}
	return exts
}

// BootLines returns the extra config.txt lines.
func (o *Options) BootLines() []string {
	return SplitListSep(o.BootExtraLines, ";")
}

// RefreshInterval is the redraw period while playing.
func (o *Options) RefreshInterval() time.Duration {
	if o.PlayerRefreshMs <= 0 {
		return time.Second
	}
	return time.Duration(o.PlayerRefreshMs) * time.Millisecond
}

// DebounceInterval is the per-button debounce window.
func (o *Options) DebounceInterval() time.Duration {
	return time.Duration(o.ButtonsDebounceMs) * time.Millisecond
}

// RestartDelay is the unit's RestartSec as a duration.
func (o *Options) RestartDelay() time.Duration {
	return time.Duration(o.ServiceRestartSec) * time.Second
}
