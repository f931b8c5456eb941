package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/core/validation"
)

type userFields struct {
	Username string `json:"username" validate:"present,max=255"`
	Password string `json:"password" validate:"present,max=72"`
	Role     string `json:"role"     validate:"present,oneof=buyer owner"`
}

// AuthService verifies Basic credentials and registers users.
type AuthService struct {
	repo     ports.UserRepository
	cost     int
	validate *validation.Validator
	log      zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, cost int, log zerolog.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, cost: cost, validate: validation.New(), log: log}
}

// Authenticate resolves username to a user and checks password against the
// stored digest.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser validates the input, hashes the password and stores the user.
// A taken username is reported as a validation error on "username".
func (s *AuthService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if err := s.validate.Struct(&userFields{Username: in.Username, Password: in.Password, Role: in.Role}); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:       in.Username,
		PasswordDigest: string(hash),
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		ve := &domain.ValidationError{}
		ve.Add("username", "has already been taken")
		return nil, ve
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Str("role", created.Role.String()).Msg("user created")
	return created, nil
}
