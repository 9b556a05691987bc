package bootstrap

import (
	"context"
	"log"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/storage/kv"
	"github.com/redis/go-redis/v9"
)

// OpenRedis returns nil when Redis is not configured or unreachable. Status
// events and the sweeper lock degrade to no-ops without it.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		log.Println("[warn] REDIS_ADDR not set, status events and sweeper lock disabled")
		return nil
	}
	client, err := kv.NewClient(ctx, kv.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		log.Printf("[warn] redis unavailable, continuing without it: %v", err)
		return nil
	}
	return client
}
