package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/metrics"
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// UserKey is the echo.Context key holding the authenticated *domain.User.
const UserKey = "user"

const realm = `Basic realm="Application"`

// Auth resolves HTTP Basic credentials to a user and stores it under UserKey.
// Missing or wrong credentials end the request with 401.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, password, ok := c.Request().BasicAuth()
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("missing_credentials").Inc()
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, realm)
				return echo.ErrUnauthorized
			}

			user, err := auth.Authenticate(c.Request().Context(), username, password)
			if errors.Is(err, domain.ErrInvalidCredentials) {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_credentials").Inc()
				return echo.ErrUnauthorized
			}
			if err != nil {
				return err
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Auth, or nil.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(UserKey).(*domain.User)
	return user
}
