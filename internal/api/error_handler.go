package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all non-validation errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders validation failures as a field → messages object with 422.
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusUnprocessableEntity, ve.Fields)
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (router 404/405, auth middleware, envelope checks).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrBusinessNotFound):
		return http.StatusNotFound, "business not found"
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotBusinessOwner):
		return http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)
	case errors.Is(err, domain.ErrOrderAlreadyAccepted):
		return http.StatusUnprocessableEntity, "Order has already been accepted."
	case errors.Is(err, domain.ErrAcceptedOrderNotRejectable):
		return http.StatusUnprocessableEntity, "Accepted orders cannot be rejected."
	case errors.Is(err, domain.ErrRejectedOrderNotAcceptable):
		return http.StatusUnprocessableEntity, "Rejected orders cannot be accepted."
	case errors.Is(err, domain.ErrStatusConflict):
		return http.StatusUnprocessableEntity, "Order was modified concurrently."
	case errors.Is(err, domain.ErrIdempotencyKeyInFlight):
		return http.StatusConflict, "A request with this Idempotency-Key is still being processed."
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
