package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like records that a user likes an artifact. LikeID is the artifact id in hex.
type Like struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	LikeID    string             `json:"like_id" bson:"like_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// ToggleLikeRequest defines the request body for POST /historical-like
type ToggleLikeRequest struct {
	Email  string `json:"email" validate:"required,email"`
	LikeID string `json:"like_id" validate:"required,mongodb"`
}

// ToggleResult reports the like state after a toggle.
type ToggleResult struct {
	Liked bool
	Delta int
}
