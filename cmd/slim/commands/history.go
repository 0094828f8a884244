package commands

import (
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (c *CLI) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the provenance of the last build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := c.app.History(cmd.Context(), c.settings())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Stage", "Role", "Base", "Input Hash", "Cache Key", "Duration", "Finished")
			for _, info := range infos {
				if err := table.Append(
					info.Stage,
					string(info.Role),
					info.Base,
					info.InputHash,
					info.CacheKey.Short(),
					info.Duration.Round(time.Millisecond).String(),
					info.Timestamp.Format(time.RFC3339),
				); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
