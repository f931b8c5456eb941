package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// CreateOrderInput carries the fields of a new order. Quantity is a decimal so
// that fractional input is reported as a validation error.
type CreateOrderInput struct {
	Buyer          *domain.User
	BusinessID     int64
	Quantity       *decimal.Decimal
	Price          *decimal.Decimal
	IdempotencyKey string
}

// UpdateOrderInput carries the optional new terms of an order. Nil fields keep
// their current value.
type UpdateOrderInput struct {
	Buyer    *domain.User
	OrderID  int64
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
}

// OrderResult is returned by CreateOrder.
type OrderResult struct {
	Order *domain.Order
	// Replayed is true when the Idempotency-Key matched an earlier order.
	Replayed bool
}

// OrderService defines the order state machine use cases.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error)
	UpdateOrder(ctx context.Context, input UpdateOrderInput) (*domain.Order, error)
	AcceptOrder(ctx context.Context, caller *domain.User, orderID int64) (*domain.Order, error)
	RejectOrder(ctx context.Context, caller *domain.User, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, businessID int64) ([]*domain.OrderWithBuyer, error)

	// FindBusiness and FindOrder resolve path ids before a request body is read.
	FindBusiness(ctx context.Context, businessID int64) (*domain.Business, error)
	FindOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}
