package ports

import (
	"context"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create persists user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
