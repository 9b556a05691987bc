package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.ConfigureRuntime(cfg.App)

	verifier, err := bootstrap.NewVerifier(ctx, cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	dbs, err := bootstrap.OpenDatabases(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer dbs.Close()

	rdb := bootstrap.OpenRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := bootstrap.BuildServices(cfg, dbs, rdb)
	if cfg.Analysis.WebhookURL == "" {
		log.Println("[warn] ANALYSIS_WEBHOOK_URL not set, new projects will fall back to draft")
	}

	if err := svc.Sweeper.Start(ctx, cfg.Analysis.SweepSchedule); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	defer svc.Sweeper.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "portaal-api",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CallbackSecret: cfg.Analysis.CallbackSecret,
		DB:             dbs.User,
		Verifier:       verifier,
		Services:       svc,
	})

	// No WriteTimeout: status event streams stay open for minutes.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (env=%s)", cfg.Server.Port, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] shutdown: %v", err)
	}
	log.Println("server stopped")
}
