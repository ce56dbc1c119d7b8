package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/logging"
	"github.com/smazurov/luffyplayer/internal/provision"
	"github.com/smazurov/luffyplayer/internal/systemd"
	"github.com/spf13/cobra"
)

// installFlags override the matching options for a single run.
type installFlags struct {
	root           string
	bootConfig     string
	asound         string
	card           string
	unitDir        string
	user           string
	workDir        string
	script         string
	venv           string
	skipBootConfig bool
	skipAsound     bool
	enable         bool
	start          bool
	reboot         bool
	dryRun         bool
	json           bool
}

func (f *installFlags) register(cmd *cobra.Command, full bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.root, "root", "", "Prefix for every target path, e.g. a mounted SD card")
	flags.StringVar(&f.bootConfig, "boot-config", "", "config.txt to edit")
	flags.StringVar(&f.asound, "asound", "", "asound.conf to write")
	flags.StringVar(&f.unitDir, "unit-dir", "", "Directory for the unit file")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print what would change without touching the system")
	flags.BoolVar(&f.json, "json", false, "Print the report as JSON")
	if !full {
		return
	}
	flags.StringVar(&f.card, "card", "", "Sound card pinned as the ALSA default")
	flags.StringVar(&f.user, "user", "", "User the service runs as")
	flags.StringVar(&f.workDir, "workdir", "", "Service working directory")
	flags.StringVar(&f.script, "script", "", "Run this Python script instead of the built-in player")
	flags.StringVar(&f.venv, "venv", "", "Virtualenv for --script")
	flags.BoolVar(&f.skipBootConfig, "skip-boot-config", false, "Leave config.txt alone")
	flags.BoolVar(&f.skipAsound, "skip-asound", false, "Leave asound.conf alone")
	flags.BoolVar(&f.enable, "enable", true, "Enable the unit at boot")
	flags.BoolVar(&f.start, "start", false, "Start the unit now")
	flags.BoolVar(&f.reboot, "reboot", false, "Reboot when done")
}

// apply copies the flags that were set on the command line into opts.
func (f *installFlags) apply(cmd *cobra.Command, opts *config.Options) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("boot-config", &opts.BootConfigPath, f.bootConfig)
	set("asound", &opts.AsoundPath, f.asound)
	set("card", &opts.AsoundCard, f.card)
	set("unit-dir", &opts.ServiceUnitDir, f.unitDir)
	set("user", &opts.ServiceUser, f.user)
	set("workdir", &opts.ServiceWorkDir, f.workDir)
	set("script", &opts.ServiceScript, f.script)
	set("venv", &opts.ServiceVenv, f.venv)
}

func (f *installFlags) plan(cmd *cobra.Command, opts *config.Options) (provision.Plan, error) {
	f.apply(cmd, opts)
	exe, err := Executable()
	if err != nil {
		return provision.Plan{}, err
	}
	plan, err := NewPlan(opts, exe)
	if err != nil {
		return plan, err
	}
	plan.Root = f.root
	plan.SkipBootConfig = f.skipBootConfig
	plan.SkipAsound = f.skipAsound
	plan.Enable = f.enable
	plan.Start = f.start
	plan.Reboot = f.reboot
	plan.DryRun = f.dryRun
	return plan, nil
}

// openUnits connects to the system bus. It returns nil, not an error, when
// no bus is reachable so dry runs and chroots keep working.
func openUnits(ctx context.Context) *systemd.Manager {
	mgr, err := systemd.NewManager(ctx, true)
	if err != nil {
		logging.GetLogger("provision").Warn("systemd not reachable", "error", err)
		return nil
	}
	return mgr
}

func newInstaller(ctx context.Context, plan provision.Plan) (*provision.Installer, func()) {
	logger := logging.GetLogger("provision")
	if plan.DryRun {
		return provision.NewInstaller(nil, logger), func() {}
	}
	if mgr := openUnits(ctx); mgr != nil {
		return provision.NewInstaller(mgr, logger), mgr.Close
	}
	return provision.NewInstaller(nil, logger), func() {}
}

// CreateInstallCmd creates the install command.
func CreateInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Configure the Pi and install the player service",
		Long: `Disables onboard and HDMI audio in config.txt, enables the DAC overlay, ` +
			`pins the DAC as the ALSA default in asound.conf, writes the systemd unit, ` +
			`reloads systemd and enables the unit. Use --dry-run to review the changes first.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			plan, err := flags.plan(cmd, opts)
			if err != nil {
				fail(err)
			}

			installer, closeUnits := newInstaller(cmd.Context(), plan)
			defer closeUnits()

			report, err := installer.Install(cmd.Context(), plan)
			printReport(cmd.OutOrStdout(), report, flags.json, plan.DryRun)
			if err != nil {
				fail(err)
			}
		}),
	}
	flags.register(cmd, true)
	return cmd
}

// CreateUninstallCmd creates the uninstall command.
func CreateUninstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop, disable and remove the player service",
		Long:  `Removes the unit. config.txt and asound.conf are left in place and their backups are reported.`,
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			plan, err := flags.plan(cmd, opts)
			if err != nil {
				fail(err)
			}

			installer, closeUnits := newInstaller(cmd.Context(), plan)
			defer closeUnits()

			report, err := installer.Uninstall(cmd.Context(), plan)
			printReport(cmd.OutOrStdout(), report, flags.json, plan.DryRun)
			if err != nil {
				fail(err)
			}
		}),
	}
	flags.register(cmd, false)
	return cmd
}

func printReport(w io.Writer, report provision.Report, asJSON, dryRun bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, step := range report.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", step.Name, step.Status, step.Path, step.Detail)
	}
	tw.Flush()

	for _, change := range report.BootChanges {
		fmt.Fprintf(w, "config.txt: %s\n", change)
	}
	if dryRun {
		for _, path := range slices.Sorted(maps.Keys(report.Files)) {
			fmt.Fprintf(w, "\n--- %s\n%s", path, report.Files[path])
		}
	}
	if report.RebootRequired {
		fmt.Fprintln(w, "\nReboot required for the boot configuration to take effect: sudo reboot")
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
