package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/bootstrap"
	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/projects/repository"
	"github.com/citizen-portaal/portaal-backend/internal/projects/service"
	"github.com/citizen-portaal/portaal-backend/internal/storage/kv"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire projects pending analysis past the ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServiceDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				var (
					publisher events.Publisher = events.Noop{}
					locker    service.Locker
				)
				if rdb := bootstrap.OpenRedis(ctx, cfg.Redis); rdb != nil {
					defer rdb.Close()
					publisher = events.NewRedisBus(rdb)
					locker = kv.NewLocker(rdb)
				}

				sweeper := service.NewSweeper(repository.NewProjectRepository(db), locker, publisher, cfg.Analysis.Ceiling)
				ids, err := sweeper.SweepOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d project(s)\n", len(ids))
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), " ", id)
				}
				return nil
			})
		},
	}
}
