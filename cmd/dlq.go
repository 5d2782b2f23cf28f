package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/infra/sqliteq"
)

func dlqCmd(store *sqliteq.Store) *cobra.Command {
	var command = &cobra.Command{
		Use:   "dlq",
		Short: "Manage the dead-letter queue",
	}

	command.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all jobs in the DLQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := store.ListDead(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("No dead jobs found.")
				return nil
			}
			for _, job := range jobs {
				out, err := json.MarshalIndent(job, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "retry <job-id>",
		Short: "Move a dead job back to pending for retry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.RetryDead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s moved back to pending for retry\n", args[0])
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete all jobs from the DLQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store.PurgeDead(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Purged %d dead job(s)\n", n)
			return nil
		},
	})

	return command
}
