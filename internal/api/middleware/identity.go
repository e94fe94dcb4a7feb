package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	applog "github.com/replyhq/reply-backend/internal/logger"
	"github.com/replyhq/reply-backend/internal/models"
	"github.com/replyhq/reply-backend/internal/repository"
)

// HeaderAuthUser carries the verified username, injected by the
// authenticating gateway in front of this service. This backend trusts
// it; establishing the identity is the gateway's job.
const HeaderAuthUser = "X-Auth-User"

// userContextKey is the echo context key for the resolved user
const userContextKey = "current_user"

// Identity resolves the gateway-verified username to a user row and
// stores it in the request context. Requests without a resolvable
// identity are rejected before reaching any handler.
func Identity(users repository.UserRepository, logger *slog.Logger) echo.MiddlewareFunc {
	var sec *applog.SecurityLogger
	if logger != nil {
		sec = applog.SecurityLoggerFrom(logger)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()

			// Skip auth for health endpoints
			if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/ready") {
				return next(c)
			}

			username := strings.TrimSpace(c.Request().Header.Get(HeaderAuthUser))
			if username == "" {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), path, "missing identity header")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "missing identity",
					"code":  "UNAUTHORIZED",
				})
			}

			user, err := users.GetByUsername(c.Request().Context(), username)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					if sec != nil {
						sec.AuthFailure(c.RealIP(), path, "unknown username")
					}
					return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
						"error": "unknown identity",
						"code":  "UNAUTHORIZED",
					})
				}
				return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
					"error": "failed to resolve identity",
					"code":  "INTERNAL_ERROR",
				})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user resolved by the Identity middleware.
// Returns nil when called outside an authenticated request.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// SetCurrentUser stores a user in the context. Exposed for handler tests.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}
