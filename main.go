package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/cmd"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/logging"
	"github.com/smazurov/luffyplayer/internal/version"
)

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		// The daemon is built here rather than in the callback body because
		// the callback also runs before every subcommand.
		hooks.OnStart(func() {
			defer close(done)
			info := version.Get()
			logger.Info("Starting luffyplayer", "version", info.Version, "commit", info.GitCommit)

			d, err := newDaemon(ctx, opts)
			if err != nil {
				logger.Error("Failed to start player", "error", err)
				os.Exit(1)
			}

			if runErr := d.run(ctx); runErr != nil {
				if errors.Is(runErr, errRestart) {
					logger.Info("Exiting for restart")
				} else {
					logger.Error("Player stopped", "error", runErr)
				}
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down player")
			cancel()
			<-done
		})
	})

	root := cli.Root()
	root.Use = "luffyplayer"
	root.Short = "Boot-time audio player for a Raspberry Pi DAC and LCD hat"
	root.Version = version.Get().String()

	root.AddCommand(cmd.CreateInstallCmd())
	root.AddCommand(cmd.CreateUninstallCmd())
	root.AddCommand(cmd.CreateCheckCmd())
	root.AddCommand(cmd.CreateRenderCmd())
	root.AddCommand(cmd.CreateDevicesCmd())
	root.AddCommand(cmd.CreateUpdateCmd())

	// Run the CLI
	cli.Run()
}
