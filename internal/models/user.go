package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// JwtCustomClaims are the claims carried by the auth cookie.
type JwtCustomClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenRequest is the identity payload posted to /jwt.
type TokenRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}
