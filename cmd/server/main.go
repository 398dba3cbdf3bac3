package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sujalbistaa/pinboard/internal/api"
	"github.com/sujalbistaa/pinboard/internal/config"
	routes "github.com/sujalbistaa/pinboard/internal/http"
	"github.com/sujalbistaa/pinboard/internal/session"
	"github.com/sujalbistaa/pinboard/internal/ws"
)

const sweepInterval = 5 * time.Minute

func main() {
	// Load .env first. Production sets the variables directly, so a missing
	// file is not an error.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 2. Backend client
	client, err := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout))
	if err != nil {
		logger.Fatal("Failed to build posts client", zap.Error(err))
	}

	// 3. View state store
	store, err := session.Open(cfg.SessionStore, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.String("store", cfg.SessionStore), zap.Error(err))
	}
	sessions := session.NewManager(store, logger.Named("session"))
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("Failed to close session store", zap.Error(err))
		}
	}()
	go sessions.Run(ctx, sweepInterval)

	// 4. Live updates
	var hub *ws.Hub
	if cfg.LiveUpdates {
		hub = ws.NewHub(logger.Named("ws"), nil)
		go hub.Run(ctx)
	}

	// 5. Router
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	env := &routes.Env{
		API:      client,
		Sessions: sessions,
		Hub:      hub,
		Logger:   logger,
		Location: cfg.Location(),
	}
	if err := routes.SetupRoutes(ctx, router, env, cfg); err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server listening",
			zap.String("addr", cfg.Addr()),
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.String("session_store", cfg.SessionStore),
			zap.Bool("live_updates", cfg.LiveUpdates),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	logger.Info("Server exiting")
}
