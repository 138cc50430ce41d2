package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidID is returned when an artifact id is not a 24 character hex ObjectID.
var ErrInvalidID = errors.New("invalid artifact ID format")

// TopLikedLimit is the size of the most-liked listing.
const TopLikedLimit = 8

// ArtifactRepository defines the interface for artifact data operations
type ArtifactRepository interface {
	CreateArtifact(ctx context.Context, artifact *models.Artifact) (*models.InsertResult, error)
	// GetArtifactByID returns nil and no error when nothing matches.
	GetArtifactByID(ctx context.Context, id string) (*models.Artifact, error)
	FindArtifacts(ctx context.Context, query models.ArtifactQuery) ([]models.Artifact, error)
	GetTopLiked(ctx context.Context, limit int64) ([]models.Artifact, error)
	UpsertArtifact(ctx context.Context, id string, update *models.ArtifactUpdate) (*models.UpdateResult, error)
	UpdateStatus(ctx context.Context, id string, status string) (*models.UpdateResult, error)
	DeleteArtifact(ctx context.Context, id string) (*models.DeleteResult, error)
}

// MongoArtifactRepository implements ArtifactRepository for MongoDB
type MongoArtifactRepository struct {
	collection *mongo.Collection
}

// NewMongoArtifactRepository creates a new MongoArtifactRepository
func NewMongoArtifactRepository(db *mongo.Database) *MongoArtifactRepository {
	return &MongoArtifactRepository{collection: db.Collection(ArtifactsCollection)}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return objID, nil
}

// CreateArtifact inserts a new artifact with a fresh id
func (r *MongoArtifactRepository) CreateArtifact(ctx context.Context, artifact *models.Artifact) (*models.InsertResult, error) {
	artifact.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, artifact); err != nil {
		return nil, fmt.Errorf("insert artifact: %w", err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: artifact.ID.Hex()}, nil
}

// GetArtifactByID retrieves an artifact by ID from MongoDB
func (r *MongoArtifactRepository) GetArtifactByID(ctx context.Context, id string) (*models.Artifact, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var artifact models.Artifact
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&artifact)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find artifact: %w", err)
	}
	return &artifact, nil
}

// FindArtifacts lists artifacts matching the query
func (r *MongoArtifactRepository) FindArtifacts(ctx context.Context, query models.ArtifactQuery) ([]models.Artifact, error) {
	return r.find(ctx, artifactFilter(query), options.Find())
}

// GetTopLiked returns the most liked artifacts, highest first
func (r *MongoArtifactRepository) GetTopLiked(ctx context.Context, limit int64) ([]models.Artifact, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "like_count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{}, findOptions)
}

func (r *MongoArtifactRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Artifact, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find artifacts: %w", err)
	}
	defer cursor.Close(ctx)

	artifacts := []models.Artifact{}
	if err = cursor.All(ctx, &artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	return artifacts, nil
}

// UpsertArtifact sets every supplied field, inserting the artifact when the id is unknown
func (r *MongoArtifactRepository) UpsertArtifact(ctx context.Context, id string, update *models.ArtifactUpdate) (*models.UpdateResult, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	doc := bson.M{"$set": update}
	if update.LikeCount == nil {
		doc["$setOnInsert"] = bson.M{"like_count": 0}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, doc, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("upsert artifact: %w", err)
	}
	return toUpdateResult(res), nil
}

// UpdateStatus sets the status field of an artifact
func (r *MongoArtifactRepository) UpdateStatus(ctx context.Context, id string, status string) (*models.UpdateResult, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return nil, fmt.Errorf("update artifact status: %w", err)
	}
	return toUpdateResult(res), nil
}

// DeleteArtifact deletes an artifact by ID from MongoDB
func (r *MongoArtifactRepository) DeleteArtifact(ctx context.Context, id string) (*models.DeleteResult, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return nil, fmt.Errorf("delete artifact: %w", err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// artifactFilter builds the listing filter. A type filter replaces the name search.
func artifactFilter(query models.ArtifactQuery) bson.M {
	filter := bson.M{}
	switch {
	case query.Filter != "":
		filter["artifact_type"] = query.Filter
	case query.Search != "":
		filter["artifact_name"] = primitive.Regex{Pattern: regexp.QuoteMeta(query.Search), Options: "i"}
	}
	if query.Email != "" {
		filter["email"] = query.Email
	}
	return filter
}

func toUpdateResult(res *mongo.UpdateResult) *models.UpdateResult {
	out := &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		hex := oid.Hex()
		out.UpsertedID = &hex
	}
	return out
}
