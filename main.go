// ABOUTME: This file is the entry point of the heat news collection pipeline
// ABOUTME: Loads env config, installs signal handling, and runs one collection
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"heat-collector/config"
	"heat-collector/logger"
	"heat-collector/pipeline"
)

func main() {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	log := logger.New("heat-collector")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting collection",
		"sources", cfg.Collection.Sources,
		"regions", len(cfg.Collection.Regions),
		"timeout_minutes", cfg.Collection.TimeoutMinutes,
		"llm_provider", cfg.LLM.Provider)

	if err := pipeline.New(cfg, log).Run(ctx); err != nil {
		log.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
