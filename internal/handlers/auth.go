package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/historical-artifacts/backend/internal/middleware"
	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/anonto42/historical-artifacts/backend/pkg/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 5 * time.Hour

// AuthHandler issues and clears the auth cookie
type AuthHandler struct {
	jwtSecret string
	cookie    config.CookiePolicy
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtSecret string, cookie config.CookiePolicy) *AuthHandler {
	return &AuthHandler{
		jwtSecret: jwtSecret,
		cookie:    cookie,
		now:       time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes. Extra middleware, such as
// Firebase verification, guards token issuance only.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, issue ...echo.MiddlewareFunc) {
	g.POST("/jwt", h.IssueToken, issue...)
	g.GET("/logout", h.Logout)
}

// IssueToken signs a token for the posted email and sets it as an http-only cookie
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req models.TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := req.Email
	if verified, ok := c.Get(middleware.FirebaseEmailKey).(string); ok {
		if email != "" && !strings.EqualFold(email, verified) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
		}
		email = verified
	}
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	token, err := h.generateJWT(email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}

	c.SetCookie(h.newCookie(token, int(TokenTTL.Seconds())))
	return c.JSON(http.StatusOK, echo.Map{"message": true})
}

// Logout expires the auth cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.newCookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"message": true})
}

// newCookie builds the auth cookie. A negative maxAge expires it immediately.
func (h *AuthHandler) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	}
}

// generateJWT generates a JWT token for a given email
func (h *AuthHandler) generateJWT(email string) (string, error) {
	now := h.now()
	claims := &models.JwtCustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
