package cmd

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/updater"
	"github.com/spf13/cobra"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var apply, rollback bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and optionally install it",
		Long: `Without flags, reports whether a newer release exists. --apply replaces this binary ` +
			`and --rollback restores the previous one; restart the service afterwards.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			svc, err := updater.NewService(&updater.Options{
				Repository: opts.UpdateRepository,
				Prerelease: opts.UpdatePrerelease,
			})
			if err != nil {
				fail(err)
			}
			if !svc.IsEnabled() && (apply || rollback) {
				fail(fmt.Errorf("update disabled: %s", svc.DisabledReason()))
			}

			w := cmd.OutOrStdout()
			ctx := cmd.Context()
			switch {
			case rollback:
				if err := svc.Rollback(ctx); err != nil {
					fail(err)
				}
				fmt.Fprintln(w, "Rolled back. Restart the service: sudo systemctl restart", opts.ServiceName)
			case apply:
				if err := svc.ApplyUpdate(ctx); err != nil {
					if updater.Code(err) == updater.ErrCodeNoUpdate {
						fmt.Fprintln(w, "Already up to date")
						return
					}
					fail(err)
				}
				st := svc.GetStatus(ctx)
				fmt.Fprintf(w, "Updated %s -> %s. Restart the service: sudo systemctl restart %s\n",
					st.CurrentVersion, st.TargetVersion, opts.ServiceName)
			default:
				info, err := svc.CheckForUpdate(ctx)
				if err != nil {
					fail(err)
				}
				if !info.UpdateAvailable {
					fmt.Fprintf(w, "Up to date (%s, latest %s)\n", info.CurrentVersion, info.LatestVersion)
					return
				}
				fmt.Fprintf(w, "Update available: %s -> %s\n%s\n", info.CurrentVersion, info.LatestVersion, info.ReleaseURL)
			}
		}),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the latest release")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the binary saved by the last update")
	cmd.MarkFlagsMutuallyExclusive("apply", "rollback")
	return cmd
}
