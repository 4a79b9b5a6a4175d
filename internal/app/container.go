package app

import (
	"context"
	"log"
	"time"

	"ai-job-bot/internal/applicator"
	"ai-job-bot/internal/config"
	"ai-job-bot/internal/database"
	dbpostgres "ai-job-bot/internal/database/postgres"
	"ai-job-bot/internal/dedup"
	"ai-job-bot/internal/infrastructure/cache"
	"ai-job-bot/internal/orchestrator"
	"ai-job-bot/internal/repository"
	"ai-job-bot/internal/runlock"
	"ai-job-bot/internal/scorer"
	"ai-job-bot/internal/source"
	"ai-job-bot/internal/ws"
)

// Container owns every long-lived dependency: connections, repositories,
// the pipeline and the websocket hub.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Hub    *ws.Hub

	Runs         repository.RunRepository
	Postings     repository.PostingRepository
	Applications repository.ApplicationRepository
	Stats        repository.StatsRepository

	Orchestrator *orchestrator.Orchestrator

	Logger *log.Logger
}

type ContainerOptions struct {
	// DryRun swaps the browser applicator for one that only logs.
	DryRun bool
	Logger *log.Logger
}

func NewContainer(cfg config.Config, opts ContainerOptions) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)
	hub := ws.NewHub(logger)

	runs := repository.NewPostgresRunRepository(db)
	postings := repository.NewPostgresPostingRepository(db)
	applications := repository.NewPostgresApplicationRepository(db)
	stats := repository.NewPostgresStatsRepository(db)
	locks := repository.NewPostgresLockRepository(db)
	dedupRepo := repository.NewPostgresDedupRepository(db)

	var applier applicator.Applicator
	if opts.DryRun {
		applier = applicator.NewDryRun(logger)
	} else {
		applier = applicator.NewBrowser(logger)
	}

	orch := orchestrator.New(cfg, orchestrator.Deps{
		Guard:      runlock.NewGuard(locks, runs, cfg.Pipeline.RunLockTTL, logger),
		Runs:       runs,
		Postings:   postings,
		Apps:       applications,
		Dedup:      dedup.New(dedupRepo, redisCache, logger),
		Adapters:   source.BuildAdapters(cfg),
		Scorer:     scorer.New(cfg.Scorer, logger),
		Applicator: applier,
		Notifier:   ws.NewRunNotifier(hub),
		Logger:     logger,
	})

	return &Container{
		Config:       cfg,
		DB:           db,
		Cache:        redisCache,
		Hub:          hub,
		Runs:         runs,
		Postings:     postings,
		Applications: applications,
		Stats:        stats,
		Orchestrator: orch,
		Logger:       logger,
	}, nil
}

func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
