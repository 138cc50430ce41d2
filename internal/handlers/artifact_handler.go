package handlers

import (
	"bytes"
	"net/http"

	"github.com/anonto42/historical-artifacts/backend/internal/cache"
	"github.com/anonto42/historical-artifacts/backend/internal/export"
	"github.com/anonto42/historical-artifacts/backend/internal/middleware"
	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/anonto42/historical-artifacts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ArtifactHandler handles HTTP requests related to artifacts
type ArtifactHandler struct {
	artifactRepository repositories.ArtifactRepository
	ranking            cache.RankingCache
	log                *logrus.Logger
}

// NewArtifactHandler creates a new ArtifactHandler
func NewArtifactHandler(artifactRepo repositories.ArtifactRepository, ranking cache.RankingCache, log *logrus.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		artifactRepository: artifactRepo,
		ranking:            ranking,
		log:                log,
	}
}

// RegisterArtifactRoutes registers artifact routes. auth guards the owner listing.
func (h *ArtifactHandler) RegisterArtifactRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/all-historical-data", h.GetAllArtifacts)
	g.GET("/all-historical-data/export", h.ExportArtifacts)
	g.GET("/highest-like-history", h.GetTopLiked)
	g.GET("/historical", h.GetOwnArtifacts, auth)
	g.GET("/historical/:id", h.GetArtifact)
	g.POST("/historical", h.CreateArtifact)
	g.PUT("/historical/:id", h.UpsertArtifact)
	g.DELETE("/historical/:id", h.DeleteArtifact)
	g.PATCH("/like-update/:id", h.UpdateStatus)
}

func listingQuery(c echo.Context) models.ArtifactQuery {
	return models.ArtifactQuery{
		Search: c.QueryParam("search"),
		Filter: c.QueryParam("filter"),
	}
}

// GetAllArtifacts lists artifacts, narrowed by ?search= (name) or ?filter= (type)
func (h *ArtifactHandler) GetAllArtifacts(c echo.Context) error {
	artifacts, err := h.artifactRepository.FindArtifacts(c.Request().Context(), listingQuery(c))
	if err != nil {
		return storageError(err)
	}
	return c.JSON(http.StatusOK, artifacts)
}

// ExportArtifacts returns the same listing as a spreadsheet
func (h *ArtifactHandler) ExportArtifacts(c echo.Context) error {
	artifacts, err := h.artifactRepository.FindArtifacts(c.Request().Context(), listingQuery(c))
	if err != nil {
		return storageError(err)
	}

	var buf bytes.Buffer
	if err := export.WriteArtifacts(&buf, artifacts); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build export").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="artifacts.xlsx"`)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetTopLiked returns the most liked artifacts, served from the ranking cache when warm
func (h *ArtifactHandler) GetTopLiked(c echo.Context) error {
	ctx := c.Request().Context()

	cached, ok, err := h.ranking.Get(ctx)
	if err != nil {
		requestLog(h.log, c).WithError(err).Warn("ranking cache read failed")
	}
	if ok {
		return c.JSON(http.StatusOK, cached)
	}

	generation, genErr := h.ranking.Generation(ctx)
	artifacts, err := h.artifactRepository.GetTopLiked(ctx, repositories.TopLikedLimit)
	if err != nil {
		return storageError(err)
	}
	if genErr != nil {
		requestLog(h.log, c).WithError(genErr).Warn("ranking cache generation unavailable, not caching")
	} else if err := h.ranking.Set(ctx, generation, artifacts); err != nil {
		requestLog(h.log, c).WithError(err).Warn("ranking cache write failed")
	}
	return c.JSON(http.StatusOK, artifacts)
}

// GetOwnArtifacts lists the artifacts added by the authenticated user
func (h *ArtifactHandler) GetOwnArtifacts(c echo.Context) error {
	email := c.QueryParam("email")
	claims := middleware.UserClaims(c)
	if email == "" || claims == nil || claims.Email != email {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
	}

	artifacts, err := h.artifactRepository.FindArtifacts(c.Request().Context(), models.ArtifactQuery{Email: email})
	if err != nil {
		return storageError(err)
	}
	return c.JSON(http.StatusOK, artifacts)
}

// GetArtifact retrieves an artifact by ID. Unknown ids yield null.
func (h *ArtifactHandler) GetArtifact(c echo.Context) error {
	artifact, err := h.artifactRepository.GetArtifactByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storageError(err)
	}
	return c.JSON(http.StatusOK, artifact)
}

// CreateArtifact adds a new artifact
func (h *ArtifactHandler) CreateArtifact(c echo.Context) error {
	var req models.CreateArtifactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.artifactRepository.CreateArtifact(c.Request().Context(), req.Artifact())
	if err != nil {
		return storageError(err)
	}
	h.invalidateRanking(c)
	return c.JSON(http.StatusOK, result)
}

// UpsertArtifact sets the supplied fields on an artifact, creating it when missing
func (h *ArtifactHandler) UpsertArtifact(c echo.Context) error {
	var req models.ArtifactUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	}

	result, err := h.artifactRepository.UpsertArtifact(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return storageError(err)
	}
	h.invalidateRanking(c)
	return c.JSON(http.StatusOK, result)
}

// DeleteArtifact deletes an artifact
func (h *ArtifactHandler) DeleteArtifact(c echo.Context) error {
	result, err := h.artifactRepository.DeleteArtifact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storageError(err)
	}
	h.invalidateRanking(c)
	return c.JSON(http.StatusOK, result)
}

// UpdateStatus sets the status of an artifact
func (h *ArtifactHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	result, err := h.artifactRepository.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return storageError(err)
	}
	h.invalidateRanking(c)
	return c.JSON(http.StatusOK, result)
}

func (h *ArtifactHandler) invalidateRanking(c echo.Context) {
	if err := h.ranking.Invalidate(c.Request().Context()); err != nil {
		requestLog(h.log, c).WithError(err).Warn("ranking cache invalidation failed")
	}
}
