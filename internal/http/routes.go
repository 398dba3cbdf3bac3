package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/pinboard/internal/config"
	"github.com/sujalbistaa/pinboard/internal/ws"
)

const limiterCleanupInterval = 10 * time.Minute

// SetupRoutes configures all application routes and middleware. The limiter
// cleanup stops with ctx.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, cfg *config.Config) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	// --- Middleware ---
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(env.Logger))
	router.Use(SecurityHeadersMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- WebSocket Route ---
	if env.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(env.Hub, c.Writer, c.Request)
		})
	}

	// --- Board Routes ---
	pages := router.Group("/", VisitorMiddleware(cfg.SessionTTL, false))
	{
		pages.GET("/", env.Index)
		pages.POST("/refresh", env.Refresh)
		pages.POST("/search", env.Search)
		pages.POST("/sort", env.Sort)
		pages.POST("/compose", env.Compose)
		pages.POST("/compose/cancel", env.CancelCompose)
		pages.POST("/posts/:id/edit", env.EditPost)
		pages.POST("/posts/:id/cancel", env.CancelEdit)
		pages.POST("/posts/:id/delete", env.RequestDelete)

		// Actions that write to the backend are rate limited.
		writes := pages.Group("/", env.RateLimitMiddleware(limiter))
		writes.POST("/posts", env.CreatePost)
		writes.POST("/posts/:id", env.UpdatePost)
		writes.POST("/posts/:id/delete/confirm", env.ConfirmDelete)
	}
	return nil
}
