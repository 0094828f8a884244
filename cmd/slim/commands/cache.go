package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.trai.ch/slim/internal/app"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the dependency cache",
	}
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCachePruneCmd())
	return cmd
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached dependency trees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.CacheList(cmd.Context(), c.settings())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Key", "Subset", "Packages", "Size", "Tree Digest", "Created")
			for _, e := range entries {
				if err := table.Append(
					e.Key.Short(),
					string(e.Subset),
					strconv.Itoa(e.Packages),
					strconv.FormatInt(e.Size, 10),
					e.TreeDigest.String(),
					e.CreatedAt.Format(time.RFC3339),
				); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func (c *CLI) newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached dependency trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")

			removed, err := c.app.CachePrune(cmd.Context(), app.PruneOptions{
				Settings: c.settings(),
				Key:      key,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().String("key", "", "Only remove entries whose key starts with this prefix")
	return cmd
}
