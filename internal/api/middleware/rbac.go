package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/metrics"
	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// RequireRole lets the request through only when the authenticated user has
// role. Any other caller gets 401.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || user.Role != role {
				metrics.AuthFailuresTotal.WithLabelValues("role").Inc()
				return echo.ErrUnauthorized
			}
			return next(c)
		}
	}
}
