package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type likeRow struct {
	ID        string `gorm:"primaryKey;size:24"`
	Email     string `gorm:"not null;uniqueIndex:idx_like_email_artifact"`
	LikeID    string `gorm:"not null;size:24;uniqueIndex:idx_like_email_artifact;index"`
	CreatedAt time.Time
}

func (likeRow) TableName() string { return "likes" }

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// GetLikes retrieves like records, optionally for one user
func (r *PostgresLikeRepository) GetLikes(ctx context.Context, email string) ([]models.Like, error) {
	db := r.db.WithContext(ctx)
	if email != "" {
		db = db.Where("email = ?", email)
	}
	var rows []likeRow
	if err := db.Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find likes: %w", err)
	}

	likes := make([]models.Like, 0, len(rows))
	for _, row := range rows {
		id, _ := primitive.ObjectIDFromHex(row.ID)
		likes = append(likes, models.Like{ID: id, Email: row.Email, LikeID: row.LikeID, CreatedAt: row.CreatedAt})
	}
	return likes, nil
}

// ToggleLike flips the like inside one transaction. The artifact row is locked first so
// concurrent toggles on the same artifact run one after another.
func (r *PostgresLikeRepository) ToggleLike(ctx context.Context, email string, likeID string) (*models.ToggleResult, error) {
	if err := checkID(likeID); err != nil {
		return nil, err
	}

	result := &models.ToggleResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []artifactRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", likeID).Find(&locked).Error; err != nil {
			return err
		}

		res := tx.Where("email = ? AND like_id = ?", email, likeID).Delete(&likeRow{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			row := likeRow{
				ID:        primitive.NewObjectID().Hex(),
				Email:     email,
				LikeID:    likeID,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			delta = 1
		}

		err := tx.Model(&artifactRow{}).Where("id = ?", likeID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
		if err != nil {
			return err
		}
		result.Liked = delta > 0
		result.Delta = delta
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return result, nil
}

// MigratePostgres creates or updates the artifact and like tables.
func MigratePostgres(db *gorm.DB) error {
	if err := db.AutoMigrate(&artifactRow{}, &likeRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
