package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/domain"
	"queuectl/internal/infra/sqliteq"
	"queuectl/internal/usecase"
)

func enqueueCmd(store *sqliteq.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <job-json>",
		Short: "Add a new job to the queue",
		Long: `Add a new job to the queue. The argument is a JSON object with at
least "id" and "command"; optional fields are "max_retries" (int),
"priority" (int) and "run_at" (RFC3339 timestamp).

Example:
  queuectl enqueue '{"id":"job1","command":"echo hi","priority":5}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d usecase.Descriptor
			if err := json.Unmarshal([]byte(args[0]), &d); err != nil {
				return fmt.Errorf("invalid JSON: %v: %w", err, domain.ErrValidation)
			}
			enq := usecase.Enqueuer{Store: store}
			job, err := enq.Enqueue(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Printf("Enqueued job %s\n", job.ID)
			return nil
		},
	}
}
