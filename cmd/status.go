package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"queuectl/internal/config"
	"queuectl/internal/domain"
	"queuectl/internal/infra/sqliteq"
)

func statusCmd(store *sqliteq.Store, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show summary of job states and store location",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := store.CountByState(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Job counts:")
			for _, state := range domain.States {
				fmt.Printf("  %-10s: %d\n", state, counts[state])
			}
			logDir, err := filepath.Abs(cfg.LogDir)
			if err != nil {
				logDir = cfg.LogDir
			}
			fmt.Printf("\nDB file: %s\n", store.Path())
			fmt.Printf("Log dir: %s\n", logDir)
			return nil
		},
	}
}
