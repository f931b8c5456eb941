package ports

import (
	"context"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// BusinessRepository defines persistence operations for businesses.
type BusinessRepository interface {
	Create(ctx context.Context, b *domain.Business) (*domain.Business, error)
	// FindByID returns domain.ErrBusinessNotFound when no business has id.
	FindByID(ctx context.Context, id int64) (*domain.Business, error)
	// ListAvailable returns businesses with shares_available > 0 in id order.
	ListAvailable(ctx context.Context) ([]*domain.Business, error)
}
