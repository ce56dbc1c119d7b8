package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/smazurov/luffyplayer/cmd"
	"github.com/smazurov/luffyplayer/internal/api"
	"github.com/smazurov/luffyplayer/internal/buttons"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/display"
	"github.com/smazurov/luffyplayer/internal/engine"
	"github.com/smazurov/luffyplayer/internal/events"
	"github.com/smazurov/luffyplayer/internal/led"
	"github.com/smazurov/luffyplayer/internal/library"
	"github.com/smazurov/luffyplayer/internal/logging"
	"github.com/smazurov/luffyplayer/internal/metrics"
	"github.com/smazurov/luffyplayer/internal/metrics/collectors"
	"github.com/smazurov/luffyplayer/internal/metrics/exporters"
	"github.com/smazurov/luffyplayer/internal/player"
	"github.com/smazurov/luffyplayer/internal/systemd"
	"github.com/smazurov/luffyplayer/internal/updater"
)

// errRestart is returned by run after an update so the process exits
// non-zero and systemd's Restart=on-failure starts the new binary.
var errRestart = errors.New("restart requested")

// daemon owns the player and everything around it.
type daemon struct {
	opts   *config.Options
	logger *slog.Logger

	bus      *events.Bus
	buttons  buttons.Source
	player   *player.Player
	watcher  *config.Watcher[[]string]
	leds     *led.Manager
	eventCol *collectors.EventCollector
	thermal  *collectors.ThermalCollector
	units    *systemd.Manager
	updates  updater.Service
	server   *api.Server

	// stopEngine ends the engine's context once the player has cleaned up.
	stopEngine context.CancelFunc
}

// newDaemon scans the library and opens the hardware. Any error here is
// fatal: systemd restarts the unit after RestartSec.
func newDaemon(ctx context.Context, opts *config.Options) (*daemon, error) {
	d := &daemon{
		opts:   opts,
		logger: logging.GetLogger("main"),
		bus:    events.New(),
	}

	tracks, err := library.Scan(opts.LibraryDir, opts.Extensions())
	metrics.RecordLibraryScan(len(tracks), err)
	if err != nil {
		return nil, err
	}

	playerLogger := logging.GetLogger("player")
	displayLogger := logging.GetLogger("display")

	panel, err := display.NewPanel(display.PanelConfig{
		Driver:       opts.DisplayDriver,
		SPIPort:      opts.DisplaySpiPort,
		SPISpeedMHz:  opts.DisplaySpiSpeedMhz,
		DCPin:        opts.DisplayDcPin,
		BacklightPin: opts.DisplayBacklightPin,
		Rotation:     opts.DisplayRotation,
		PNGPath:      opts.DisplayPngPath,
	}, displayLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open display: %w", err)
	}
	renderer := display.NewRenderer(display.LoadFaces(opts.DisplayFont, opts.DisplaySmallFont, displayLogger), displayLogger)

	d.buttons, err = openButtons(opts)
	if err != nil {
		panel.Close()
		return nil, err
	}

	var store player.Store
	if opts.PlayerRememberState {
		store = player.NewTOMLStore(opts.PlayerStateFile)
	}

	engineCfg := engine.Config{
		Backend:     opts.EngineBackend,
		MpvPath:     opts.EngineMpvPath,
		MpvSocket:   opts.EngineMpvSocket,
		AudioDevice: opts.EngineAudioDevice,
		MpdAddress:  opts.EngineMpdAddress,
		MpdPassword: opts.EngineMpdPassword,
		MpdMusicDir: opts.EngineMpdMusicDir,
	}

	engineCtx, stopEngine := engineContext(ctx)
	d.stopEngine = stopEngine

	d.player, err = player.New(player.Options{
		Tracks:          tracks,
		Volume:          opts.PlayerVolume,
		VolumeStep:      opts.PlayerVolumeStep,
		Autoplay:        opts.PlayerAutoplay,
		RefreshInterval: opts.RefreshInterval(),
	}, player.Deps{
		NewEngine: func(onEnd engine.MediaEndFunc) (engine.Engine, error) {
			return engine.New(engineCtx, engineCfg, onEnd, logging.GetLogger("engine"))
		},
		Panel:    panel,
		Renderer: renderer,
		Buttons:  d.buttons,
		Bus:      d.bus,
		Store:    store,
		Logger:   playerLogger,
	})
	if err != nil {
		stopEngine()
		panel.Close()
		d.closeButtons()
		return nil, err
	}

	if opts.LibraryWatch {
		d.watcher = library.Watch(opts.LibraryDir, opts.Extensions(), playerLogger, d.player.RescanFailed)
		d.watcher.OnReload(d.player.ReplaceTracks)
	}

	if opts.FeaturesLedControl {
		ledLogger := logging.GetLogger("led")
		d.leds = led.NewManager(led.New(ledLogger), d.bus, ledLogger)
	}

	d.eventCol = collectors.NewEventCollector(d.bus)
	d.thermal = collectors.NewThermalCollector()

	if opts.Port != "" {
		d.server = d.newServer(ctx)
	}
	return d, nil
}

// engineContext keeps the engine out of the shutdown of ctx, so the player
// can still stop playback during cleanup. The caller cancels it afterwards.
func engineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(ctx))
}

func openButtons(opts *config.Options) (buttons.Source, error) {
	switch opts.ButtonsDriver {
	case "gpio":
		src, err := buttons.OpenGPIO(config.SplitList(opts.ButtonsPins), opts.DebounceInterval(), logging.GetLogger("buttons"))
		if err != nil {
			return nil, fmt.Errorf("failed to open buttons: %w", err)
		}
		return src, nil
	case "none", "":
		return buttons.None{}, nil
	default:
		return nil, fmt.Errorf("unknown buttons driver %q", opts.ButtonsDriver)
	}
}

func (d *daemon) closeButtons() {
	if c, ok := d.buttons.(io.Closer); ok {
		if err := c.Close(); err != nil {
			d.logger.Warn("Failed to release buttons", "error", err)
		}
	}
}

func (d *daemon) newServer(ctx context.Context) *api.Server {
	apiOpts := &api.Options{
		AuthUsername:      d.opts.AuthUsername,
		AuthPassword:      d.opts.AuthPassword,
		Player:            d.player,
		EventBus:          d.bus,
		ServiceName:       d.opts.ServiceName,
		PrometheusHandler: exporters.HTTPHandler(),
	}

	if exe, err := cmd.Executable(); err == nil {
		if plan, err := cmd.NewPlan(d.opts, exe); err == nil {
			apiOpts.CheckPlan = &plan
		}
	}

	if units, err := systemd.NewManager(ctx, true); err != nil {
		d.logger.Warn("systemd not reachable, service routes disabled", "error", err)
	} else {
		d.units = units
		apiOpts.SystemdManager = units
	}

	if d.leds != nil {
		apiOpts.LEDController = d.leds.GetController()
	}

	if svc, err := updater.NewService(&updater.Options{
		Repository: d.opts.UpdateRepository,
		Prerelease: d.opts.UpdatePrerelease,
	}); err != nil {
		d.logger.Warn("Update service unavailable", "error", err)
	} else {
		d.updates = svc
		apiOpts.UpdateService = svc
	}

	return api.NewServer(apiOpts)
}

// run serves until ctx is cancelled or an update asks for a restart, then
// shuts everything down. The player cleans up its engine and panel itself.
func (d *daemon) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.closeButtons()

	d.eventCol.Start()
	defer d.eventCol.Stop()

	if err := d.thermal.Start(ctx); err != nil {
		d.logger.Warn("Thermal collector failed to start", "error", err)
	}
	defer d.thermal.Stop()

	if d.leds != nil {
		d.leds.Start()
		defer d.leds.Stop()
	}

	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			d.logger.Warn("Library watch disabled", "dir", d.opts.LibraryDir, "error", err)
		} else {
			defer d.watcher.Stop()
		}
	}

	var wg sync.WaitGroup
	if d.server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.server.Start(d.opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("HTTP server failed", "error", err)
			}
		}()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer stopCancel()
			if err := d.server.Stop(stopCtx); err != nil {
				d.logger.Error("Error stopping HTTP server", "error", err)
			}
			wg.Wait()
		}()
	}
	if d.units != nil {
		defer d.units.Close()
	}

	var restart <-chan struct{}
	if d.updates != nil {
		restart = d.updates.RestartRequested()
	}

	playerDone := make(chan error, 1)
	go func() {
		err := d.player.Run(ctx)
		d.stopEngine()
		playerDone <- err
	}()

	select {
	case err := <-playerDone:
		return err
	case <-restart:
		d.logger.Info("Restarting into updated binary")
		cancel()
		if err := <-playerDone; err != nil {
			return err
		}
		return errRestart
	case <-ctx.Done():
		return <-playerDone
	}
}
