package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// artifactRow is the PostgreSQL shape of an artifact. Ids stay ObjectID hex strings so
// URLs look the same whichever backend is configured.
type artifactRow struct {
	ID                string `gorm:"primaryKey;size:24"`
	ArtifactName      string `gorm:"index"`
	ArtifactImage     string
	ArtifactType      string `gorm:"index"`
	HistoricalContext string
	CreatedAt         string
	DiscoveredAt      string
	DiscoveredBy      string
	PresentLocation   string
	AdderName         string
	Email             string `gorm:"index"`
	LikeCount         int    `gorm:"index;not null;default:0"`
	Status            string
}

func (artifactRow) TableName() string { return "artifacts" }

func newArtifactRow(a *models.Artifact) *artifactRow {
	return &artifactRow{
		ID:                a.ID.Hex(),
		ArtifactName:      a.ArtifactName,
		ArtifactImage:     a.ArtifactImage,
		ArtifactType:      a.ArtifactType,
		HistoricalContext: a.HistoricalContext,
		CreatedAt:         a.CreatedAt,
		DiscoveredAt:      a.DiscoveredAt,
		DiscoveredBy:      a.DiscoveredBy,
		PresentLocation:   a.PresentLocation,
		AdderName:         a.AdderName,
		Email:             a.Email,
		LikeCount:         a.LikeCount,
		Status:            a.Status,
	}
}

func (row *artifactRow) model() models.Artifact {
	id, _ := primitive.ObjectIDFromHex(row.ID)
	return models.Artifact{
		ID:                id,
		ArtifactName:      row.ArtifactName,
		ArtifactImage:     row.ArtifactImage,
		ArtifactType:      row.ArtifactType,
		HistoricalContext: row.HistoricalContext,
		CreatedAt:         row.CreatedAt,
		DiscoveredAt:      row.DiscoveredAt,
		DiscoveredBy:      row.DiscoveredBy,
		PresentLocation:   row.PresentLocation,
		AdderName:         row.AdderName,
		Email:             row.Email,
		LikeCount:         row.LikeCount,
		Status:            row.Status,
	}
}

// PostgresArtifactRepository implements ArtifactRepository for PostgreSQL
type PostgresArtifactRepository struct {
	db *gorm.DB
}

// NewPostgresArtifactRepository creates a new PostgresArtifactRepository
func NewPostgresArtifactRepository(db *gorm.DB) *PostgresArtifactRepository {
	return &PostgresArtifactRepository{db: db}
}

func checkID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return ErrInvalidID
	}
	return nil
}

// CreateArtifact creates a new artifact row
func (r *PostgresArtifactRepository) CreateArtifact(ctx context.Context, artifact *models.Artifact) (*models.InsertResult, error) {
	artifact.ID = primitive.NewObjectID()
	if err := r.db.WithContext(ctx).Create(newArtifactRow(artifact)).Error; err != nil {
		return nil, fmt.Errorf("insert artifact: %w", err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: artifact.ID.Hex()}, nil
}

// GetArtifactByID retrieves an artifact by ID
func (r *PostgresArtifactRepository) GetArtifactByID(ctx context.Context, id string) (*models.Artifact, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var row artifactRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}
	artifact := row.model()
	return &artifact, nil
}

// FindArtifacts lists artifacts matching the query
func (r *PostgresArtifactRepository) FindArtifacts(ctx context.Context, query models.ArtifactQuery) ([]models.Artifact, error) {
	var rows []artifactRow
	if err := artifactScope(r.db.WithContext(ctx), query).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find artifacts: %w", err)
	}
	return toArtifacts(rows), nil
}

// GetTopLiked returns the most liked artifacts, highest first
func (r *PostgresArtifactRepository) GetTopLiked(ctx context.Context, limit int64) ([]models.Artifact, error) {
	var rows []artifactRow
	err := r.db.WithContext(ctx).Order("like_count DESC").Order("id").Limit(int(limit)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find top liked artifacts: %w", err)
	}
	return toArtifacts(rows), nil
}

// UpsertArtifact applies the supplied fields or inserts a new row under id
func (r *PostgresArtifactRepository) UpsertArtifact(ctx context.Context, id string, update *models.ArtifactUpdate) (*models.UpdateResult, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	result := &models.UpdateResult{Acknowledged: true}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row artifactRow
		err := tx.Where("id = ?", id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			artifact := models.Artifact{}
			update.Apply(&artifact)
			artifact.ID, _ = primitive.ObjectIDFromHex(id)
			if err := tx.Create(newArtifactRow(&artifact)).Error; err != nil {
				return err
			}
			result.UpsertedCount = 1
			result.UpsertedID = &id
			return nil
		}
		if err != nil {
			return err
		}

		result.MatchedCount = 1
		before := row.model()
		after := before
		update.Apply(&after)
		if after == before {
			return nil
		}
		if err := tx.Model(&artifactRow{}).Where("id = ?", id).Updates(updateColumns(update)).Error; err != nil {
			return err
		}
		result.ModifiedCount = 1
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert artifact: %w", err)
	}
	return result, nil
}

// UpdateStatus sets the status column of an artifact
func (r *PostgresArtifactRepository) UpdateStatus(ctx context.Context, id string, status string) (*models.UpdateResult, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Model(&artifactRow{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update artifact status: %w", res.Error)
	}
	return &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.RowsAffected,
		ModifiedCount: res.RowsAffected,
	}, nil
}

// DeleteArtifact deletes an artifact row
func (r *PostgresArtifactRepository) DeleteArtifact(ctx context.Context, id string) (*models.DeleteResult, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&artifactRow{})
	if res.Error != nil {
		return nil, fmt.Errorf("delete artifact: %w", res.Error)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.RowsAffected}, nil
}

// artifactScope mirrors artifactFilter for SQL.
func artifactScope(db *gorm.DB, query models.ArtifactQuery) *gorm.DB {
	switch {
	case query.Filter != "":
		db = db.Where("artifact_type = ?", query.Filter)
	case query.Search != "":
		db = db.Where("artifact_name ILIKE ?", "%"+escapeLike(query.Search)+"%")
	}
	if query.Email != "" {
		db = db.Where("email = ?", query.Email)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func updateColumns(u *models.ArtifactUpdate) map[string]interface{} {
	cols := map[string]interface{}{}
	put := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	put("artifact_name", u.ArtifactName)
	put("artifact_image", u.ArtifactImage)
	put("artifact_type", u.ArtifactType)
	put("historical_context", u.HistoricalContext)
	put("created_at", u.CreatedAt)
	put("discovered_at", u.DiscoveredAt)
	put("discovered_by", u.DiscoveredBy)
	put("present_location", u.PresentLocation)
	put("adder_name", u.AdderName)
	put("email", u.Email)
	put("status", u.Status)
	if u.LikeCount != nil {
		cols["like_count"] = *u.LikeCount
	}
	return cols
}

func toArtifacts(rows []artifactRow) []models.Artifact {
	artifacts := make([]models.Artifact, 0, len(rows))
	for i := range rows {
		artifacts = append(artifacts, rows[i].model())
	}
	return artifacts
}
