package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/api"
	"github.com/jstittsworth/team-builder/internal/api/handlers"
	"github.com/jstittsworth/team-builder/internal/api/middleware"
	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/session"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/config"
	"github.com/jstittsworth/team-builder/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger()
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load the per-game stat tables once; they are immutable afterwards.
	// A missing table for an enabled game is fatal, a malformed one only
	// marks that game unavailable.
	loader := stats.NewLoader(cfg.StatsDir, game.Modes(), log)
	tables, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load stats tables: %v", err)
	}
	log.WithFields(logrus.Fields{
		"dir":         cfg.StatsDir,
		"games":       len(tables.Tables),
		"unavailable": len(tables.Failures),
	}).Info("Loaded stats tables")

	// Session store for substitution decisions
	sessions, closeSessions, err := buildSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}
	defer closeSessions()
	log.WithField("backend", cfg.SessionStore).Info("Session store ready")

	renderer := charts.NewRenderer(cfg.ChartWidth, cfg.ChartHeight)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Page and liveness at the root
	router.SetHTMLTemplate(handlers.PageTemplate())
	webHandler := handlers.NewWebHandler(tables)
	healthHandler := handlers.NewHealthHandler(tables)
	router.GET("/", webHandler.Index)
	router.GET("/healthz", healthHandler.GetHealth)

	// API routes under /api/v1, each request tied to a session
	sessionMW := middleware.NewSessionMiddleware(cfg.SessionSecret, cfg.SessionTTL)
	recalcLimiter := middleware.NewRateLimiter(cfg.RecalcRateLimit, cfg.RecalcRateBurst)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(sessionMW.Establish())
	api.SetupRoutes(apiV1, tables, sessions, renderer, recalcLimiter, log)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

// buildSessionStore picks the decision store backend: in-memory for a
// single process, Redis when replicas need to share sessions.
func buildSessionStore(cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionStore != "redis" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}
