// Package schedule implements the schedule command: recurring crawls on
// a cron expression.
package schedule

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gmodebadze/eventscout/cmd/common"
	"github.com/gmodebadze/eventscout/cmd/crawl"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	var cronSpec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run crawls on a recurring cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.BuildFromFlags(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			spec := cronSpec
			if spec == "" {
				spec = deps.Config.Schedule.Cron
			}
			if spec == "" {
				return errors.New("no cron expression: set --cron or schedule.cron in config")
			}

			return run(cmd, deps, spec)
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "", `cron expression, e.g. "0 */6 * * *"`)
	return cmd
}

func run(cmd *cobra.Command, deps *common.Deps, spec string) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(spec, func() {
		if crawlErr := crawl.Run(cmd.Context(), deps); crawlErr != nil {
			deps.Logger.Error("scheduled crawl failed", "error", crawlErr.Error())
		}
	})
	if err != nil {
		return errors.Join(errors.New("invalid cron expression"), err)
	}

	deps.Logger.Info("scheduler started", "cron", spec)
	scheduler.Start()
	defer scheduler.Stop()

	// Block until interrupted.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-cmd.Context().Done():
	case <-sig:
	}

	deps.Logger.Info("scheduler stopping")
	return nil
}
