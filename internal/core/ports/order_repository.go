package ports

import (
	"context"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// OrderRepository defines persistence operations for orders.
//
// The two mutating methods are conditional on the status the caller read:
// they return domain.ErrStatusConflict when the stored status differs from
// expected, and domain.ErrOrderNotFound when the order does not exist.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)

	// UpdateTerms writes quantity and price if the order is still in expected.
	UpdateTerms(ctx context.Context, o *domain.Order, expected domain.OrderStatus) (*domain.Order, error)
	// UpdateStatus moves the order from expected to next.
	UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus) (*domain.Order, error)

	// ListByBusiness returns every order of the business joined with its
	// buyer's username, in id order.
	ListByBusiness(ctx context.Context, businessID int64) ([]*domain.OrderWithBuyer, error)
	// ListByBusinessAndStatus returns the business's orders in status, in id order.
	ListByBusinessAndStatus(ctx context.Context, businessID int64, status domain.OrderStatus) ([]*domain.Order, error)
}
