package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Artifact is a catalog record for a historical item.
type Artifact struct {
	ID                primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ArtifactName      string             `json:"artifact_name" bson:"artifact_name"`
	ArtifactImage     string             `json:"artifact_image" bson:"artifact_image"`
	ArtifactType      string             `json:"artifact_type" bson:"artifact_type"`
	HistoricalContext string             `json:"historical_context" bson:"historical_context"`
	CreatedAt         string             `json:"created_at" bson:"created_at"` // era the item was made, e.g. "100 BC"
	DiscoveredAt      string             `json:"discovered_at" bson:"discovered_at"`
	DiscoveredBy      string             `json:"discovered_by" bson:"discovered_by"`
	PresentLocation   string             `json:"present_location" bson:"present_location"`
	AdderName         string             `json:"adder_name" bson:"adder_name"`
	Email             string             `json:"email" bson:"email"`
	LikeCount         int                `json:"like_count" bson:"like_count"`
	Status            string             `json:"status" bson:"status"`
}

// ArtifactUpdate carries the fields of a PUT body. Nil fields are left untouched.
type ArtifactUpdate struct {
	ArtifactName      *string `json:"artifact_name,omitempty" bson:"artifact_name,omitempty"`
	ArtifactImage     *string `json:"artifact_image,omitempty" bson:"artifact_image,omitempty"`
	ArtifactType      *string `json:"artifact_type,omitempty" bson:"artifact_type,omitempty"`
	HistoricalContext *string `json:"historical_context,omitempty" bson:"historical_context,omitempty"`
	CreatedAt         *string `json:"created_at,omitempty" bson:"created_at,omitempty"`
	DiscoveredAt      *string `json:"discovered_at,omitempty" bson:"discovered_at,omitempty"`
	DiscoveredBy      *string `json:"discovered_by,omitempty" bson:"discovered_by,omitempty"`
	PresentLocation   *string `json:"present_location,omitempty" bson:"present_location,omitempty"`
	AdderName         *string `json:"adder_name,omitempty" bson:"adder_name,omitempty"`
	Email             *string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	LikeCount         *int    `json:"like_count,omitempty" bson:"like_count,omitempty" validate:"omitempty,min=0"`
	Status            *string `json:"status,omitempty" bson:"status,omitempty"`
}

// Apply copies every non-nil field onto a.
func (u *ArtifactUpdate) Apply(a *Artifact) {
	setString(&a.ArtifactName, u.ArtifactName)
	setString(&a.ArtifactImage, u.ArtifactImage)
	setString(&a.ArtifactType, u.ArtifactType)
	setString(&a.HistoricalContext, u.HistoricalContext)
	setString(&a.CreatedAt, u.CreatedAt)
	setString(&a.DiscoveredAt, u.DiscoveredAt)
	setString(&a.DiscoveredBy, u.DiscoveredBy)
	setString(&a.PresentLocation, u.PresentLocation)
	setString(&a.AdderName, u.AdderName)
	setString(&a.Email, u.Email)
	setString(&a.Status, u.Status)
	if u.LikeCount != nil {
		a.LikeCount = *u.LikeCount
	}
}

// IsEmpty reports whether the update sets no field at all.
func (u *ArtifactUpdate) IsEmpty() bool {
	return *u == ArtifactUpdate{}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// CreateArtifactRequest defines the request body for adding an artifact
type CreateArtifactRequest struct {
	ArtifactName      string `json:"artifact_name"`
	ArtifactImage     string `json:"artifact_image"`
	ArtifactType      string `json:"artifact_type"`
	HistoricalContext string `json:"historical_context"`
	CreatedAt         string `json:"created_at"`
	DiscoveredAt      string `json:"discovered_at"`
	DiscoveredBy      string `json:"discovered_by"`
	PresentLocation   string `json:"present_location"`
	AdderName         string `json:"adder_name"`
	Email             string `json:"email" validate:"omitempty,email"`
	LikeCount         *int   `json:"like_count" validate:"omitempty,min=0"`
	Status            string `json:"status"`
}

// Artifact converts the request into a new record. An absent like_count starts at 0.
func (r *CreateArtifactRequest) Artifact() *Artifact {
	a := &Artifact{
		ArtifactName:      r.ArtifactName,
		ArtifactImage:     r.ArtifactImage,
		ArtifactType:      r.ArtifactType,
		HistoricalContext: r.HistoricalContext,
		CreatedAt:         r.CreatedAt,
		DiscoveredAt:      r.DiscoveredAt,
		DiscoveredBy:      r.DiscoveredBy,
		PresentLocation:   r.PresentLocation,
		AdderName:         r.AdderName,
		Email:             r.Email,
		Status:            r.Status,
	}
	if r.LikeCount != nil {
		a.LikeCount = *r.LikeCount
	}
	return a
}

// UpdateStatusRequest is the body of PATCH /like-update/:id
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ArtifactQuery selects artifacts for the public listing.
// Filter wins over Search when both are set.
type ArtifactQuery struct {
	Search string
	Filter string
	Email  string
}
