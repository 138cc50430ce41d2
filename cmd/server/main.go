package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/cache"
	"github.com/anonto42/historical-artifacts/backend/internal/events"
	"github.com/anonto42/historical-artifacts/backend/internal/router"
	"github.com/anonto42/historical-artifacts/backend/pkg/config"
	"github.com/anonto42/historical-artifacts/backend/pkg/firebase"
	"github.com/anonto42/historical-artifacts/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := config.NewLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource it opens, so returning closes them all.
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := config.InitDB(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.CloseDB()

	stores, err := router.NewStores(ctx, db, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to prepare storage: %w", err)
	}

	deps := router.Deps{
		Config:    cfg,
		Log:       log,
		Stores:    stores,
		Ranking:   cache.NoopRankingCache{},
		Publisher: events.NoopPublisher{},
	}

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, top-liked listing will not be cached")
		} else {
			defer client.Close()
			deps.Ranking = cache.NewRedisRankingCache(client, cfg.RankingCacheTTL)
			log.Info("Ranking cache enabled.")
		}
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, like events will not be published")
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
			log.WithField("queue", cfg.RabbitMQQueue).Info("Like events enabled.")
		}
	}

	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		deps.Verifier = firebaseApp
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, deps)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
