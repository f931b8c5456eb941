package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// CreateBusinessInput carries the fields of a new listing. SharesAvailable is
// a decimal so that non-integer input can be reported as a validation error
// rather than a decoding failure.
type CreateBusinessInput struct {
	Owner           *domain.User
	Name            string
	SharesAvailable *decimal.Decimal
}

// BusinessService defines use-case operations for businesses.
type BusinessService interface {
	CreateBusiness(ctx context.Context, input CreateBusinessInput) (*domain.Business, error)
	ListAvailableBusinesses(ctx context.Context) ([]*domain.Business, error)
	OrderHistory(ctx context.Context, businessID int64) ([]*domain.Order, error)
}
