package cmd

import (
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/luffyplayer/internal/config"
	"github.com/smazurov/luffyplayer/internal/provision"
	"github.com/smazurov/luffyplayer/internal/systemd"
	"github.com/spf13/cobra"
)

// Render prints one provisioning artifact for plan. For config, current is
// the existing config.txt to transform.
func Render(artifact string, plan provision.Plan, current string) (string, error) {
	switch artifact {
	case "config":
		out, _ := provision.ApplyBootConfig(current, plan.Boot)
		return out, nil
	case "asound":
		return provision.RenderAsoundConf(plan.Card), nil
	case "unit":
		data, err := systemd.RenderUnit(plan.Unit)
		return string(data), err
	default:
		return "", fmt.Errorf("unknown artifact %q, want config, asound or unit", artifact)
	}
}

// CreateRenderCmd creates the render command.
func CreateRenderCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:       "render <config|asound|unit>",
		Short:     "Print a provisioning artifact",
		Long:      `Prints config.txt after the audio edits, the asound.conf or the systemd unit install would write.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "asound", "unit"},
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *config.Options) {
			exe, err := Executable()
			if err != nil {
				fail(err)
			}
			plan, err := NewPlan(opts, exe)
			if err != nil {
				fail(err)
			}

			var current string
			if args[0] == "config" {
				path := input
				if path == "" {
					path = plan.BootConfigPath
				}
				data, err := os.ReadFile(path)
				if err != nil && !os.IsNotExist(err) {
					fail(err)
				}
				current = string(data)
			}

			out, err := Render(args[0], plan, current)
			if err != nil {
				fail(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
		}),
	}
	cmd.Flags().StringVar(&input, "input", "", "config.txt to transform instead of --boot-config-path")
	return cmd
}
