// The runner executes one pipeline run and exits: scrape, dedupe, score,
// apply, persist. Meant for cron and for manual invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ai-job-bot/internal/app"
	"ai-job-bot/internal/config"
	"ai-job-bot/internal/database/migration"
	"ai-job-bot/internal/domain/run"
	"ai-job-bot/internal/runlock"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "run the pipeline without submitting applications")
	trigger := flag.String("trigger", "cli", "trigger source recorded on the run")
	keywords := flag.String("keywords", "", "comma-separated search keywords, overrides SEARCH_KEYWORDS")
	location := flag.String("location", "", "search location, overrides SEARCH_LOCATION")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *keywords != "" {
		cfg.Search.Keywords = splitCSV(*keywords)
	}
	if *location != "" {
		cfg.Search.Location = *location
	}

	container, err := app.NewContainer(cfg, app.ContainerOptions{
		DryRun: *dryRun,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := (migration.Runner{Dir: "migrations"}).Run(migCtx, container.DB.SQLDB()); err != nil {
		migCancel()
		log.Fatalf("failed to run migrations: %v", err)
	}
	migCancel()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	final, err := container.Orchestrator.RunOnce(ctx, *trigger)
	if err != nil {
		if errors.Is(err, runlock.ErrAlreadyRunning) {
			log.Printf("another run is already in progress, exiting")
			os.Exit(2)
		}
		log.Fatalf("run failed to start: %v", err)
	}

	if final.Status != run.StatusCompleted {
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
