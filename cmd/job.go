package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/infra/sqliteq"
)

func jobCmd(store *sqliteq.Store) *cobra.Command {
	var command = &cobra.Command{
		Use:   "job",
		Short: "Manual job controls: pause, resume, cancel",
	}

	command.AddCommand(&cobra.Command{
		Use:   "pause <job-id>",
		Short: "Pause a job so workers skip it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Pause(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s paused\n", args[0])
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "resume <job-id>",
		Short: "Resume a paused job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Resume(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s resumed\n", args[0])
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel (delete) a job completely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s cancelled and removed\n", args[0])
			return nil
		},
	})

	return command
}
