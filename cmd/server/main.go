package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-job-bot/internal/app"
	"ai-job-bot/internal/config"
	"ai-job-bot/internal/database/migration"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	container, err := app.NewContainer(cfg, app.ContainerOptions{Logger: log.Default()})
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	migCtx, migCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := (migration.Runner{Dir: "migrations"}).Run(migCtx, container.DB.SQLDB()); err != nil {
		migCancel()
		log.Fatalf("failed to run migrations: %v", err)
	}
	migCancel()

	bootstrap, cleanup, err := app.Bootstrap(container)
	if err != nil {
		log.Fatalf("failed to bootstrap app: %v", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.Fatalf("invalid HTTP port: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
