package main

import (
	"github.com/spf13/cobra"

	"github.com/georgemunganga/souq-backend/internal/config"
	"github.com/georgemunganga/souq-backend/internal/database"
	"github.com/georgemunganga/souq-backend/internal/logging"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat)
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := database.Migrate(cmd.Context(), db, log)
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("migrations complete")
			return nil
		},
	}
}
