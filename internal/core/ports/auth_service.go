package ports

import (
	"context"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// CreateUserInput carries the fields needed to register a user.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
}

// AuthService resolves HTTP Basic credentials to users and registers new ones.
type AuthService interface {
	// Authenticate returns domain.ErrInvalidCredentials for an unknown
	// username or a wrong password.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
}
