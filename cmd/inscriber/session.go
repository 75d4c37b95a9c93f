package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/totegamma/concrnt-inscriber/internal/infra/database"
	"github.com/totegamma/concrnt-inscriber/internal/infra/repository"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage stored repository sessions",
	}

	var owner, key, repo string
	put := &cobra.Command{
		Use:   "put",
		Short: "Store the signing key and repository of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := database.NewPostgres(conf.Server.PostgresDsn)
			if err != nil {
				return err
			}

			uc := usecase.NewSessionUsecase(repository.NewSessionRepository(db))
			session, err := uc.Register(cmd.Context(), owner, key, repo)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored session for %s at %s\n", session.Owner, session.Repository)
			return nil
		},
	}
	put.Flags().StringVar(&owner, "owner", "", "Owner CCID")
	put.Flags().StringVar(&key, "key", "", "Hex encoded private key of the owner")
	put.Flags().StringVar(&repo, "repository", "", "Repository node host")
	_ = put.MarkFlagRequired("owner")
	_ = put.MarkFlagRequired("key")
	_ = put.MarkFlagRequired("repository")

	cmd.AddCommand(put)
	return cmd
}
