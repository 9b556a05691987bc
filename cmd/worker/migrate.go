package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServiceDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
				applied, err := postgres.Migrate(ctx, db)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
				}
				return nil
			})
		},
	}
}
