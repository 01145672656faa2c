package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dagzflix/dagzflix/internal/api"
	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/config"
	"github.com/dagzflix/dagzflix/internal/database"
	"github.com/dagzflix/dagzflix/internal/logger"
	"github.com/dagzflix/dagzflix/internal/scheduler"
	"github.com/dagzflix/dagzflix/internal/websocket"
)

func main() {
	// .env is optional, for local development.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting DagzFlix")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run()
	defer hub.Stop()

	responseCache := cache.New(cache.Config{Policies: cache.DefaultPolicies()})

	server := api.NewServer(db.Conn(), hub, responseCache, cfg, log.Logger)

	jobs, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := jobs.RegisterTasks(responseCache, server.SessionService()); err != nil {
		log.Fatal().Err(err).Msg("failed to register scheduled tasks")
	}
	jobs.Start()

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := jobs.Stop(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown failed")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}
