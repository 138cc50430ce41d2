package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// FirebaseEmailKey holds the verified Firebase email in the echo context.
const FirebaseEmailKey = "firebaseEmail"

// EmailVerifier resolves a Firebase ID token to the email it was issued for.
type EmailVerifier interface {
	VerifiedEmail(ctx context.Context, idToken string) (string, error)
}

// FirebaseAuthMiddleware verifies a Firebase ID token from the Authorization header and
// stores the token's email in the context.
func FirebaseAuthMiddleware(verifier EmailVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			email, err := verifier.VerifiedEmail(c.Request().Context(), tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token").SetInternal(err)
			}

			c.Set(FirebaseEmailKey, email)
			return next(c)
		}
	}
}
