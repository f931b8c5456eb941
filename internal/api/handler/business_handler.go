package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/metrics"
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// BusinessHandler handles HTTP requests for business listings.
type BusinessHandler struct {
	service ports.BusinessService
}

func NewBusinessHandler(service ports.BusinessService) *BusinessHandler {
	return &BusinessHandler{service: service}
}

// Create handles POST /businesses.
//
// @Summary      List a new business
// @Tags         businesses
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body      createBusinessRequest  true  "Business"
// @Success      201   {object}  businessResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  validationErrorResponse
// @Router       /businesses [post]
func (h *BusinessHandler) Create(c echo.Context) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createBusinessRequest
	if err := bindEnvelope(c, &req, "business"); err != nil {
		return err
	}

	b, err := h.service.CreateBusiness(c.Request().Context(), toCreateBusinessInput(req, owner))
	if err != nil {
		return err
	}

	metrics.BusinessesCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toBusinessResponse(b))
}

// List handles GET /businesses.
//
// @Summary      Businesses with shares available
// @Tags         businesses
// @Produce      json
// @Security     BasicAuth
// @Success      200  {array}   businessResponse
// @Failure      401  {object}  errorResponse
// @Router       /businesses [get]
func (h *BusinessHandler) List(c echo.Context) error {
	list, err := h.service.ListAvailableBusinesses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBusinessResponses(list))
}

// OrderHistory handles GET /businesses/:id/order_history.
//
// @Summary      Accepted orders of a business
// @Tags         businesses
// @Produce      json
// @Security     BasicAuth
// @Param        id   path      int  true  "Business id"
// @Success      200  {array}   orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /businesses/{id}/order_history [get]
func (h *BusinessHandler) OrderHistory(c echo.Context) error {
	id, err := pathID(c, "id", domain.ErrBusinessNotFound)
	if err != nil {
		return err
	}

	orders, err := h.service.OrderHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders))
}
