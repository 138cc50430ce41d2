package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ArtifactsCollection = "artifacts"
	LikesCollection     = "likes"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// GetLikes lists like records, all of them when email is empty.
	GetLikes(ctx context.Context, email string) ([]models.Like, error)
	// ToggleLike removes the (email, likeID) record if present and adds it otherwise,
	// moving the artifact's like counter in the same transaction.
	ToggleLike(ctx context.Context, email string, likeID string) (*models.ToggleResult, error)
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	client    *mongo.Client
	likes     *mongo.Collection
	artifacts *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{
		client:    db.Client(),
		likes:     db.Collection(LikesCollection),
		artifacts: db.Collection(ArtifactsCollection),
	}
}

// GetLikes retrieves like records, optionally for one user
func (r *MongoLikeRepository) GetLikes(ctx context.Context, email string) ([]models.Like, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	cursor, err := r.likes.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find likes: %w", err)
	}
	defer cursor.Close(ctx)

	likes := []models.Like{}
	if err = cursor.All(ctx, &likes); err != nil {
		return nil, fmt.Errorf("decode likes: %w", err)
	}
	return likes, nil
}

// ToggleLike runs the toggle inside a multi-document transaction
func (r *MongoLikeRepository) ToggleLike(ctx context.Context, email string, likeID string) (*models.ToggleResult, error) {
	artifactID, err := parseObjectID(likeID)
	if err != nil {
		return nil, err
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.toggle(sc, email, likeID, artifactID)
	})
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return out.(*models.ToggleResult), nil
}

// toggle deletes first so that existence is checked and changed in one write.
func (r *MongoLikeRepository) toggle(ctx context.Context, email, likeID string, artifactID primitive.ObjectID) (*models.ToggleResult, error) {
	pair := bson.M{"email": email, "like_id": likeID}
	res, err := r.likes.DeleteOne(ctx, pair)
	if err != nil {
		return nil, err
	}

	delta := -1
	if res.DeletedCount == 0 {
		like := models.Like{
			ID:        primitive.NewObjectID(),
			Email:     email,
			LikeID:    likeID,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := r.likes.InsertOne(ctx, like); err != nil {
			return nil, err
		}
		delta = 1
	}

	_, err = r.artifacts.UpdateOne(ctx, bson.M{"_id": artifactID}, bson.M{"$inc": bson.M{"like_count": delta}})
	if err != nil {
		return nil, err
	}
	return &models.ToggleResult{Liked: delta > 0, Delta: delta}, nil
}

// EnsureMongoIndexes creates the indexes the listings and the like toggle rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(LikesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "like_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email_like_id"),
		},
		{Keys: bson.D{{Key: "like_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create like indexes: %w", err)
	}

	_, err = db.Collection(ArtifactsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "like_count", Value: -1}}},
		{Keys: bson.D{{Key: "artifact_type", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create artifact indexes: %w", err)
	}
	return nil
}
