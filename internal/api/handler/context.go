package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/middleware"
	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// currentUser returns the user injected by the Auth middleware. Its absence
// means the route was registered without the auth chain.
func currentUser(c echo.Context) (*domain.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, echo.ErrUnauthorized
	}
	return user, nil
}

// pathID parses an integer path parameter. A malformed id cannot match any
// record, so it is reported as notFound.
func pathID(c echo.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
