package router

import (
	"context"
	"fmt"

	"github.com/anonto42/historical-artifacts/backend/internal/cache"
	"github.com/anonto42/historical-artifacts/backend/internal/events"
	"github.com/anonto42/historical-artifacts/backend/internal/handlers"
	"github.com/anonto42/historical-artifacts/backend/internal/middleware"
	"github.com/anonto42/historical-artifacts/backend/internal/repositories"
	"github.com/anonto42/historical-artifacts/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Stores is the pair of repositories backing the API.
type Stores struct {
	Artifacts repositories.ArtifactRepository
	Likes     repositories.LikeRepository
}

// NewStores builds the repositories for whichever connection db holds and prepares
// the schema (indexes for MongoDB, migrations for PostgreSQL).
func NewStores(ctx context.Context, db *config.DB, mongoDatabase string) (*Stores, error) {
	switch {
	case db.Postgres != nil:
		if err := repositories.MigratePostgres(db.Postgres); err != nil {
			return nil, fmt.Errorf("failed to auto migrate models: %w", err)
		}
		return &Stores{
			Artifacts: repositories.NewPostgresArtifactRepository(db.Postgres),
			Likes:     repositories.NewPostgresLikeRepository(db.Postgres),
		}, nil
	case db.Mongo != nil:
		mdb := db.Mongo.Database(mongoDatabase)
		if err := repositories.EnsureMongoIndexes(ctx, mdb); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return &Stores{
			Artifacts: repositories.NewMongoArtifactRepository(mdb),
			Likes:     repositories.NewMongoLikeRepository(mdb),
		}, nil
	default:
		return nil, fmt.Errorf("no database connection")
	}
}

// Deps carries everything SetupRoutes injects into the handlers.
type Deps struct {
	Config    *config.Config
	Log       *logrus.Logger
	Stores    *Stores
	Ranking   cache.RankingCache
	Publisher events.Publisher
	// Verifier is optional. When set, POST /jwt requires a Firebase ID token.
	Verifier middleware.EmailVerifier
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	log := deps.Log

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", handlers.Root)

	g := e.Group("")

	var issue []echo.MiddlewareFunc
	if deps.Verifier != nil {
		issue = append(issue, middleware.FirebaseAuthMiddleware(deps.Verifier))
		log.Info("Firebase verification applied to token issuance.")
	}
	authHandler := handlers.NewAuthHandler(deps.Config.SecretKey, deps.Config.Cookie)
	authHandler.RegisterAuthRoutes(g, issue...)
	log.Info("Auth routes configured.")

	artifactHandler := handlers.NewArtifactHandler(deps.Stores.Artifacts, deps.Ranking, log)
	artifactHandler.RegisterArtifactRoutes(g, middleware.JWTCookieMiddleware(deps.Config.SecretKey))
	log.Info("Artifact routes configured.")

	likeHandler := handlers.NewLikeHandler(deps.Stores.Likes, deps.Ranking, deps.Publisher, log)
	likeHandler.RegisterLikeRoutes(g)
	log.Info("Like routes configured.")

	log.Info("All routes configured.")
}
