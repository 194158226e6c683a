// Package sources implements the sources command group.
package sources

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gmodebadze/eventscout/cmd/common"
)

// Command returns the sources command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage configured event sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(listCommand())
	return cmd
}

// listCommand prints the configured sources as a table.
func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.BuildFromFlags(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Enabled", "City", "Country", "Max Candidates"})
			for _, src := range deps.Config.Sources {
				maxCandidates := "unlimited"
				if src.MaxCandidates > 0 {
					maxCandidates = strconv.Itoa(src.MaxCandidates)
				}
				t.AppendRow(table.Row{src.ID, src.Enabled, src.City, src.Country, maxCandidates})
			}
			t.Render()
			return nil
		},
	}
}
