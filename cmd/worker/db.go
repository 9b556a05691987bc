package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/storage/postgres"
)

// withServiceDB runs fn on the privileged pool; maintenance needs to see every row.
func withServiceDB(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.SetLevel(cfg.App.LogLevel)
	db, err := postgres.NewConnection(ctx, postgres.Options{
		DSN:          cfg.Database.ServiceDSN,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, cfg, db)
}
