package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/core/validation"
)

// businessFields carries the numeric fields as exact decimals; their rules
// live in businessRules.
type businessFields struct {
	Name            string           `json:"name"             validate:"present"`
	SharesAvailable *decimal.Decimal `json:"shares_available" validate:"-"`
}

func businessRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(businessFields)
	validation.Count(sl, f.SharesAvailable, "shares_available", 0, false)
}

type businessService struct {
	businesses ports.BusinessRepository
	orders     ports.OrderRepository
	validate   *validation.Validator
	log        zerolog.Logger
}

// NewBusinessService returns a BusinessService implementation.
func NewBusinessService(businesses ports.BusinessRepository, orders ports.OrderRepository, log zerolog.Logger) ports.BusinessService {
	v := validation.New()
	v.RegisterStructValidation(businessRules, businessFields{})

	return &businessService{
		businesses: businesses,
		orders:     orders,
		validate:   v,
		log:        log,
	}
}

func (s *businessService) CreateBusiness(ctx context.Context, in ports.CreateBusinessInput) (*domain.Business, error) {
	if !in.Owner.IsOwner() {
		return nil, domain.ErrNotBusinessOwner
	}

	fields := &businessFields{Name: in.Name, SharesAvailable: in.SharesAvailable}
	if err := s.validate.Struct(fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.businesses.Create(ctx, &domain.Business{
		Name:            in.Name,
		SharesAvailable: in.SharesAvailable.IntPart(),
		OwnerID:         in.Owner.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("owner_id", in.Owner.ID).Msg("failed to create business")
		return nil, fmt.Errorf("create business: %w", err)
	}

	s.log.Info().
		Int64("business_id", created.ID).
		Int64("owner_id", created.OwnerID).
		Int64("shares_available", created.SharesAvailable).
		Msg("business created")
	return created, nil
}

func (s *businessService) ListAvailableBusinesses(ctx context.Context) ([]*domain.Business, error) {
	list, err := s.businesses.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return list, nil
}

// OrderHistory returns the accepted orders of a business. Any buyer may read
// any business's history.
func (s *businessService) OrderHistory(ctx context.Context, businessID int64) ([]*domain.Order, error) {
	if _, err := s.businesses.FindByID(ctx, businessID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByBusinessAndStatus(ctx, businessID, domain.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return orders, nil
}
