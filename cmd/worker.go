package cmd

import (
	"github.com/spf13/cobra"

	"queuectl/internal/config"
	"queuectl/internal/infra/joblog"
	"queuectl/internal/infra/shell"
	"queuectl/internal/infra/sqliteq"
	"queuectl/internal/worker"
)

func workerCmd(store *sqliteq.Store, cfg *config.Config) *cobra.Command {
	var command = &cobra.Command{
		Use:   "worker",
		Short: "Manage workers",
	}

	var count int
	var start = &cobra.Command{
		Use:   "start",
		Short: "Start one or more workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := joblog.NewWriter(cfg.LogDir)
			if err != nil {
				return err
			}
			return worker.Run(cmd.Context(), worker.Config{
				Count:        count,
				PollInterval: cfg.PollInterval,
			}, store, shell.NewRunner(cfg.Shell, logs))
		},
	}
	start.Flags().IntVar(&count, "count", 1, "Number of workers to start")

	command.AddCommand(start)
	return command
}
