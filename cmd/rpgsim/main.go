// Package main runs the world simulation: it loads content and scripts,
// restores the configured save slot and drives the game loop until
// interrupted, saving on shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/app"
	"github.com/cory-johannsen/rpgworld/internal/config"
	"github.com/cory-johannsen/rpgworld/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file with RPG_* overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file loaded from %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "rpgsim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("starting simulation", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing simulation", zap.Error(err))
		}
	}()

	logger.Info("simulation ready",
		zap.String("content", cfg.Game.ContentDir),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("save_slot", cfg.Game.SaveSlot),
		zap.Duration("tick_rate", cfg.Game.TickRate),
		zap.Duration("startup", time.Since(start)),
	)

	if err := a.Run(ctx); err != nil {
		logger.Error("simulation exited with error", zap.Error(err))
		return
	}
	logger.Info("simulation exited", zap.Duration("uptime", time.Since(start)))
}
