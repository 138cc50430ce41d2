package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/historical-artifacts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// storageError maps a repository error onto an HTTP error.
func storageError(err error) error {
	if errors.Is(err, repositories.ErrInvalidID) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

// badRequest answers 400 with msg. An *echo.HTTPError cause is unwrapped first, since
// echo renders a nested HTTPError in place of the outer one.
func badRequest(msg string, cause error) error {
	var he *echo.HTTPError
	if errors.As(cause, &he) {
		cause = he.Internal
	}
	return echo.NewHTTPError(http.StatusBadRequest, msg).SetInternal(cause)
}

func requestLog(log *logrus.Logger, c echo.Context) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"path":       c.Path(),
	})
}
