package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/share-marketplace/internal/api/metrics"
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// HeaderIdempotencyKey lets buyers retry order creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler handles HTTP requests for the order workflow.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /businesses/:business_id/orders.
//
// @Summary      Place an order for shares
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        business_id      path      int           true   "Business id"
// @Param        Idempotency-Key  header    string        false  "Replays the first order created with this key"
// @Param        body             body      orderRequest  true   "Order"
// @Success      201              {object}  orderResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  validationErrorResponse
// @Router       /businesses/{business_id}/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	buyer, err := currentUser(c)
	if err != nil {
		return err
	}
	businessID, err := pathID(c, "business_id", domain.ErrBusinessNotFound)
	if err != nil {
		return err
	}
	if _, err := h.service.FindBusiness(c.Request().Context(), businessID); err != nil {
		return err
	}

	var req orderRequest
	if err := bindEnvelope(c, &req, "order"); err != nil {
		return err
	}

	key := c.Request().Header.Get(HeaderIdempotencyKey)
	res, err := h.service.CreateOrder(c.Request().Context(), toCreateOrderInput(req, buyer, businessID, key))
	if err != nil {
		return err
	}

	if res.Replayed {
		metrics.IdempotencyReplaysTotal.Inc()
	} else {
		metrics.OrdersCreatedTotal.Inc()
	}
	return c.JSON(http.StatusCreated, toOrderResponse(res.Order))
}

// Update handles PATCH /orders/:id.
//
// @Summary      Change quantity or price of an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path      int           true  "Order id"
// @Param        body  body      orderRequest  true  "New terms"
// @Success      200   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  validationErrorResponse
// @Router       /orders/{id} [patch]
func (h *OrderHandler) Update(c echo.Context) error {
	buyer, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", domain.ErrOrderNotFound)
	if err != nil {
		return err
	}
	if _, err := h.service.FindOrder(c.Request().Context(), id); err != nil {
		return err
	}

	var req orderRequest
	if err := bindEnvelope(c, &req, "order"); err != nil {
		return err
	}

	order, err := h.service.UpdateOrder(c.Request().Context(), toUpdateOrderInput(req, buyer, id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Accept handles PATCH /orders/:id/accept.
//
// @Summary      Accept a pending order
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /orders/{id}/accept [patch]
func (h *OrderHandler) Accept(c echo.Context) error {
	return h.transition(c, "accept", h.service.AcceptOrder)
}

// Reject handles PATCH /orders/:id/reject.
//
// @Summary      Reject an order
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /orders/{id}/reject [patch]
func (h *OrderHandler) Reject(c echo.Context) error {
	return h.transition(c, "reject", h.service.RejectOrder)
}

type transitionFunc func(ctx context.Context, caller *domain.User, orderID int64) (*domain.Order, error)

func (h *OrderHandler) transition(c echo.Context, verb string, apply transitionFunc) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", domain.ErrOrderNotFound)
	if err != nil {
		return err
	}

	order, err := apply(c.Request().Context(), caller, id)
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			metrics.OrderTransitionRejectionsTotal.WithLabelValues(reason).Inc()
		}
		if errors.Is(err, domain.ErrNotBusinessOwner) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to "+verb+" this order.")
		}
		return err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(order.Status.String()).Inc()
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotBusinessOwner):
		return "not_owner"
	case errors.Is(err, domain.ErrOrderAlreadyAccepted), errors.Is(err, domain.ErrAcceptedOrderNotRejectable):
		return "already_accepted"
	case errors.Is(err, domain.ErrRejectedOrderNotAcceptable):
		return "rejected_not_acceptable"
	case errors.Is(err, domain.ErrStatusConflict):
		return "conflict"
	default:
		return ""
	}
}

// List handles GET /businesses/:business_id/orders.
//
// @Summary      Orders placed on a business
// @Tags         orders
// @Produce      json
// @Security     BasicAuth
// @Param        business_id  path      int  true  "Business id"
// @Success      200          {array}   orderListItem
// @Failure      401          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Router       /businesses/{business_id}/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	businessID, err := pathID(c, "business_id", domain.ErrBusinessNotFound)
	if err != nil {
		return err
	}

	orders, err := h.service.ListOrders(c.Request().Context(), businessID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderListItems(orders))
}
