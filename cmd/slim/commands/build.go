package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/slim/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the stage graph and export the runtime artifact set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			initBinary, _ := cmd.Flags().GetString("init")
			keep, _ := cmd.Flags().GetBool("keep-workspaces")

			res, err := c.app.Build(cmd.Context(), app.BuildOptions{
				Settings:       c.settings(),
				Out:            out,
				Init:           initBinary,
				KeepWorkspaces: keep,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "build %s\n", res.ID)
			for _, a := range res.Final {
				_, _ = fmt.Fprintf(w, "%s %s\n", a.Digest, a.Name())
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Export the final artifact set and image.json into this directory")
	cmd.Flags().String("init", "", "Supervisor binary to place at the init path of the export")
	cmd.Flags().Bool("keep-workspaces", false, "Keep stage workspaces for inspection")
	return cmd
}
