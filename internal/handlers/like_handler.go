package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/cache"
	"github.com/anonto42/historical-artifacts/backend/internal/events"
	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/anonto42/historical-artifacts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	ranking        cache.RankingCache // top-liked listing changes with every toggle
	publisher      events.Publisher
	log            *logrus.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, ranking cache.RankingCache, publisher events.Publisher, log *logrus.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		ranking:        ranking,
		publisher:      publisher,
		log:            log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.GET("/historical-like", h.GetLikes)
	g.POST("/historical-like", h.ToggleLike)
}

// GetLikes lists like records, optionally for ?email=
func (h *LikeHandler) GetLikes(c echo.Context) error {
	likes, err := h.likeRepository.GetLikes(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return storageError(err)
	}
	return c.JSON(http.StatusOK, likes)
}

// ToggleLike adds the like when absent and removes it when present
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	var req models.ToggleLikeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request data.", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("Invalid request data.", err)
	}

	ctx := c.Request().Context()
	result, err := h.likeRepository.ToggleLike(ctx, req.Email, req.LikeID)
	if err != nil {
		return storageError(err)
	}

	entry := requestLog(h.log, c).WithFields(logrus.Fields{"email": req.Email, "like_id": req.LikeID})
	if err := h.ranking.Invalidate(ctx); err != nil {
		entry.WithError(err).Warn("ranking cache invalidation failed")
	}
	event := events.LikeEvent{
		Email:      req.Email,
		LikeID:     req.LikeID,
		Liked:      result.Liked,
		LikeDelta:  result.Delta,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishLike(ctx, event); err != nil {
		entry.WithError(err).Warn("like event not published")
	}

	if result.Liked {
		return c.JSON(http.StatusOK, echo.Map{"message": "Like added", "like": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Like removed", "like": false})
}
