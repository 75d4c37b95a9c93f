package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/totegamma/concrnt-inscriber/internal/infra/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(conf.Server.PostgresDsn)
			if err != nil {
				return err
			}
			if err := database.MigratePostgres(db); err != nil {
				return err
			}

			slog.Info("migration complete")
			return nil
		},
	}
}
