package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"queuectl/internal/config"
	"queuectl/internal/infra/sqliteq"
)

func Run() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	store, err := sqliteq.Open(cfg.DBPath, cfg.BusyTimeout)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open store")
	}
	defer store.Close()

	var command = &cobra.Command{
		Use:           "queuectl",
		Short:         "Persistent multi-worker job queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	command.AddCommand(enqueueCmd(store))
	command.AddCommand(listCmd(store))
	command.AddCommand(statusCmd(store, cfg))
	command.AddCommand(workerCmd(store, cfg))
	command.AddCommand(dlqCmd(store))
	command.AddCommand(jobCmd(store))
	command.AddCommand(configCmd(store))
	command.AddCommand(apiCmd(store, cfg))

	if err := command.Execute(); err != nil {
		log.Error().Msgf("%v", err)
		os.Exit(1)
	}
}
