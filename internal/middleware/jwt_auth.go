package middleware

import (
	"net/http"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	// TokenCookie is the name of the cookie carrying the signed token.
	TokenCookie = "token"
	// UserKey holds the verified *models.JwtCustomClaims in the echo context.
	UserKey = "user"
)

// JWTCookieMiddleware verifies the token cookie and stores its claims under UserKey.
// The wrapped handler only runs for a valid token.
func JWTCookieMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
			}

			claims, err := ParseToken(cookie.Value, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access").SetInternal(err)
			}

			c.Set(UserKey, claims)
			return next(c)
		}
	}
}

// ParseToken verifies an HMAC signed token and its expiry.
func ParseToken(tokenString, secret string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// UserClaims returns the claims stored by JWTCookieMiddleware, or nil.
func UserClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(UserKey).(*models.JwtCustomClaims)
	return claims
}
