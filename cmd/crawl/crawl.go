// Package crawl implements the crawl command: one full pipeline run
// ending in a written snapshot.
package crawl

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gmodebadze/eventscout/cmd/common"
	"github.com/gmodebadze/eventscout/internal/pipeline"
	"github.com/gmodebadze/eventscout/internal/snapshot"
)

// timeRounding keeps durations readable in the summary table.
const timeRounding = 10 * time.Millisecond

// Command returns the crawl command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run the full pipeline and write a snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.BuildFromFlags(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			return Run(cmd.Context(), deps)
		},
	}
}

// Run executes one pipeline run and writes the snapshot.
func Run(ctx context.Context, deps *common.Deps) error {
	p := pipeline.New(deps.Config, deps.Logger)

	result, err := p.Run(ctx)
	if err != nil {
		printSummary(result)
		return fmt.Errorf("pipeline run: %w", err)
	}

	writer := snapshot.NewWriter(deps.Config.Output)
	path, err := writer.Write(result.Snapshot)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	deps.Logger.Info("snapshot written",
		"path", path,
		"total_events", result.Snapshot.TotalEvents,
	)
	printSummary(result)
	return nil
}

// printSummary renders the per-source run summary.
func printSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Candidates", "Events", "Failed", "Dropped", "Duration", "Status"})

	for _, src := range result.Sources {
		status := "ok"
		if src.Err != nil {
			status = src.Err.Error()
		}
		t.AppendRow(table.Row{
			src.Source, src.Candidates, src.Events, src.Failed, src.Dropped,
			src.Duration.Round(timeRounding), status,
		})
	}
	t.AppendFooter(table.Row{"total", "", result.Snapshot.TotalEvents, "", "", result.Duration.Round(timeRounding), ""})
	t.Render()
}
