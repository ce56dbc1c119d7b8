package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/provision"
	"github.com/spf13/cobra"
)

// CreateCheckCmd creates the check command.
func CreateCheckCmd() *cobra.Command {
	var (
		root   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the DAC, ALSA routing and service are set up",
		Long: `Checks that config.txt disables HDMI audio and enables the DAC overlay, that no HDMI ` +
			`card is present, that asound.conf pins the DAC and the kernel lists it, and that the unit ` +
			`restarts on failure and is enabled. Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			exe, err := Executable()
			if err != nil {
				fail(err)
			}
			plan, err := NewPlan(opts, exe)
			if err != nil {
				fail(err)
			}
			plan.Root = root

			var units provision.UnitStateReader
			if root == "" {
				if mgr := openUnits(cmd.Context()); mgr != nil {
					defer mgr.Close()
					units = mgr
				}
			}

			results := provision.RunChecks(cmd.Context(), plan, units)
			printChecks(cmd.OutOrStdout(), results, asJSON)
			if provision.Failed(results) {
				os.Exit(1)
			}
		}),
	}
	cmd.Flags().StringVar(&root, "root", "", "Check an image mounted at this prefix; skips the systemd bus")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printChecks(w io.Writer, results []provision.CheckResult, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Status, r.Detail)
	}
	tw.Flush()
}
