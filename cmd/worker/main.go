package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadsync/internal/auth"
	"leadsync/internal/booking"
	"leadsync/internal/calls"
	"leadsync/internal/config"
	"leadsync/internal/directory"
	"leadsync/internal/enrichment"
	"leadsync/internal/ingestion"
	"leadsync/internal/opsapi"
	"leadsync/internal/provider"
	"leadsync/internal/runner"
	"leadsync/internal/scheduler"
	"leadsync/pkg/logger"
	"leadsync/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience only; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Storage
	callRepo := calls.NewPostgresRepo(db)
	dir := directory.NewPostgresDirectory(db)
	syncQueue := booking.NewPostgresQueueRepo(db)
	syncLogs := booking.NewPostgresLogRepo(db)

	// Collaborator clients
	providerClient := provider.NewClient(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	})
	extractor := enrichment.NewOpenAIExtractor(enrichment.Config{
		APIKey:  cfg.Extraction.APIKey,
		BaseURL: cfg.Extraction.BaseURL,
		Model:   cfg.Extraction.Model,
		Timeout: cfg.Extraction.Timeout,
	})
	bookingClient := booking.NewClient(booking.ClientConfig{
		BaseURL: cfg.Booking.BaseURL,
		Timeout: cfg.Booking.Timeout,
	})

	// Pipelines
	ingestPipeline := ingestion.NewPipeline(providerClient, callRepo, dir, log)
	enrichPipeline := enrichment.NewPipeline(callRepo, extractor, log)
	syncEngine := booking.NewEngine(syncQueue, syncLogs, callRepo, dir, dir, bookingClient, bookingClient, log)

	run := runner.New(ingestPipeline, enrichPipeline, syncEngine, rdb, log)

	sched := scheduler.New(run, log)
	if err := sched.Start(rootCtx, cfg.Schedules); err != nil {
		log.Error("scheduler init failed", "err", err)
		os.Exit(1)
	}

	// Gin router for the ops surface
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := opsapi.Handlers{
		Auth:    authManager,
		Ops:     cfg.Ops,
		Runner:  run,
		Records: callRepo,
		Queue:   syncQueue,
	}
	registerRoutes(r, handlers, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("ops api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
