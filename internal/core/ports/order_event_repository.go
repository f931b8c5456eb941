package ports

import (
	"context"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// OrderEventRepository appends to the order audit trail.
type OrderEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.OrderEvent) error
}
