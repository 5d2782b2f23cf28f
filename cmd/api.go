package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/api"
	"queuectl/internal/config"
	"queuectl/internal/infra/sqliteq"
)

func apiCmd(store *sqliteq.Store, cfg *config.Config) *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "api",
		Short: "Start the HTTP control-plane server",
		Run: func(cmd *cobra.Command, args []string) {
			addr := cfg.ListenAddr
			if cmd.Flags().Changed("port") {
				addr = fmt.Sprintf(":%d", port)
			}
			server := api.NewServer(store, cfg.DBPath, cfg.LogDir)
			server.Run(addr)
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	return command
}
