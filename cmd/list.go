package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/domain"
	"queuectl/internal/infra/sqliteq"
)

func listCmd(store *sqliteq.Store) *cobra.Command {
	var state string
	var command = &cobra.Command{
		Use:   "list",
		Short: "List jobs by state (or all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := store.List(cmd.Context(), domain.State(state))
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("No jobs found.")
				return nil
			}
			for _, job := range jobs {
				line, err := json.Marshal(job)
				if err != nil {
					return err
				}
				fmt.Println(string(line))
			}
			return nil
		},
	}
	command.Flags().StringVar(&state, "state", "", "Filter by job state")
	return command
}
