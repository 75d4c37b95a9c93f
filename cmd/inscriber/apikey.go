package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/concrnt-inscriber/internal/infra/database"
	"github.com/totegamma/concrnt-inscriber/internal/infra/repository"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

func newAPIKeyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage submission tokens",
	}

	var owner string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new submission token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := apikeyUsecase(ctx)
			if err != nil {
				return err
			}

			plaintext, key, err := uc.Issue(cmd.Context(), owner)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id:    %s\ntoken: %s\n", key.ID, plaintext)
			return nil
		},
	}
	issue.Flags().StringVar(&owner, "owner", "", "Owner CCID")
	_ = issue.MarkFlagRequired("owner")

	var listOwner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List submission tokens of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := apikeyUsecase(ctx)
			if err != nil {
				return err
			}

			keys, err := uc.List(cmd.Context(), listOwner)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key.ID, key.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	list.Flags().StringVar(&listOwner, "owner", "", "Owner CCID")
	_ = list.MarkFlagRequired("owner")

	cmd.AddCommand(issue, list)
	return cmd
}

func apikeyUsecase(ctx *commandContext) (*usecase.APIKeyUsecase, error) {
	conf, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		return nil, err
	}
	return usecase.NewAPIKeyUsecase(repository.NewAPIKeyRepository(db)), nil
}
