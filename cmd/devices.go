package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/internal/audio"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List ALSA sound cards and playback devices",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			cards, err := audio.ListCards(opts.ProcRoot)
			if err != nil {
				fail(err)
			}
			devices, _ := audio.ListDevices(opts.ProcRoot)

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CARD\tID\tDRIVER\tNAME\tNOTE")
			for _, c := range cards {
				note := ""
				switch {
				case c.ID == opts.AsoundCard:
					note = "default"
				case c.IsHDMI():
					note = "hdmi"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.Index, c.ID, c.Driver, c.Name, note)
			}
			tw.Flush()

			if len(devices) > 0 {
				fmt.Fprintln(w)
				tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DEVICE\tNAME\tPLAYBACK")
				for _, d := range devices {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", d.ALSADevice, d.Name, d.Playback)
				}
				tw.Flush()
			}

			if _, ok := audio.FindCard(cards, opts.AsoundCard); !ok {
				fmt.Fprintf(w, "\nwarning: card %s not found; is dtoverlay=%s active?\n", opts.AsoundCard, opts.BootDacOverlay)
			}
		}),
	}
}
