package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"queuectl/internal/infra/sqliteq"
)

func configCmd(store *sqliteq.Store) *cobra.Command {
	var command = &cobra.Command{
		Use:   "config",
		Short: "Manage persisted queue configuration",
	}

	command.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key (persisted; read by workers at startup)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.SetConfig(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Set config %s = %s\n", args[0], args[1])
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := store.AllConfig(cmd.Context())
			if err != nil {
				return err
			}
			if len(values) == 0 {
				fmt.Println("No configuration set yet.")
				return nil
			}
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s = %s\n", k, values[k])
			}
			return nil
		},
	})

	return command
}
