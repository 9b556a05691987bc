package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/storage/postgres"
)

// Databases holds the two pools. Service bypasses row security and must only
// reach server-side writers (analysis ingest, sweeper).
type Databases struct {
	User    *sql.DB
	Service *sql.DB
}

func OpenDatabases(ctx context.Context, cfg config.DatabaseConfig) (*Databases, error) {
	user, err := postgres.NewConnection(ctx, postgres.Options{
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("user pool: %w", err)
	}

	service, err := postgres.NewConnection(ctx, postgres.Options{
		DSN:          cfg.ServiceDSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		user.Close()
		return nil, fmt.Errorf("service pool: %w", err)
	}

	return &Databases{User: user, Service: service}, nil
}

func (d *Databases) Close() {
	if d.User != nil {
		d.User.Close()
	}
	if d.Service != nil {
		d.Service.Close()
	}
}
