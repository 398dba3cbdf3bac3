package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sujalbistaa/pinboard/internal/api"
	"github.com/sujalbistaa/pinboard/internal/config"
	"github.com/sujalbistaa/pinboard/internal/tui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	baseURL := flag.String("api", cfg.APIBaseURL, "posts API base URL")
	flag.Parse()

	// Prompts own the terminal, so only warnings reach stderr.
	cfg.LogLevel = "warn"
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := api.New(*baseURL, api.WithTimeout(cfg.APITimeout))
	if err != nil {
		logger.Fatal("Failed to build posts client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := tui.New(client, tui.NewSurveyDriver(),
		tui.WithLocation(cfg.Location()),
		tui.WithLogger(logger),
	)
	if err := app.Run(ctx); err != nil {
		logger.Error("boardctl exited", zap.Error(err))
		os.Exit(1)
	}
}
