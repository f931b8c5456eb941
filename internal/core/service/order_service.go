package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/core/validation"
)

// IdempotencyStore abstracts the Idempotency-Key store (Redis). A key is
// reserved before the order is created, then completed with the order id or
// released when creation fails.
type IdempotencyStore interface {
	// Reserve claims key for buyerID. It returns false when the key is
	// already reserved or completed.
	Reserve(ctx context.Context, buyerID int64, key string) (bool, error)
	// Lookup returns the order id stored under key. pending is true while
	// the reserving request is still running; an unknown key yields 0, false.
	Lookup(ctx context.Context, buyerID int64, key string) (orderID int64, pending bool, err error)
	Complete(ctx context.Context, buyerID int64, key string, orderID int64) error
	Release(ctx context.Context, buyerID int64, key string) error
}

// noIdempotency is used when no store is configured; every key is reserved
// and nothing is remembered.
type noIdempotency struct{}

func (noIdempotency) Reserve(context.Context, int64, string) (bool, error) { return true, nil }
func (noIdempotency) Lookup(context.Context, int64, string) (int64, bool, error) { return 0, false, nil }
func (noIdempotency) Complete(context.Context, int64, string, int64) error { return nil }
func (noIdempotency) Release(context.Context, int64, string) error { return nil }

const (
	defaultReplayWait = 3 * time.Second
	defaultReplayPoll = 25 * time.Millisecond
)

// orderTerms carries the numeric fields as exact decimals; their rules live
// in orderRules.
type orderTerms struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"-"`
	Price    *decimal.Decimal `json:"price"    validate:"-"`
}

func orderRules(sl validator.StructLevel) {
	t := sl.Current().Interface().(orderTerms)
	validation.Count(sl, t.Quantity, "quantity", 0, true)
	validation.Amount(sl, t.Price, "price", domain.PriceScale, domain.PriceLimit)
}

type orderService struct {
	businesses ports.BusinessRepository
	orders     ports.OrderRepository
	events     ports.OrderEventRepository
	idem       IdempotencyStore
	validate   *validation.Validator
	log        zerolog.Logger

	// replayWait bounds how long a request waits for another request
	// holding the same idempotency key; replayPoll is the retry interval.
	replayWait time.Duration
	replayPoll time.Duration
}

// NewOrderService returns an OrderService implementation.
func NewOrderService(
	businesses ports.BusinessRepository,
	orders ports.OrderRepository,
	events ports.OrderEventRepository,
	idem IdempotencyStore,
	log zerolog.Logger,
) ports.OrderService {
	if idem == nil {
		idem = noIdempotency{}
	}
	v := validation.New()
	v.RegisterStructValidation(orderRules, orderTerms{})

	return &orderService{
		businesses: businesses,
		orders:     orders,
		events:     events,
		idem:       idem,
		validate:   v,
		log:        log,
		replayWait: defaultReplayWait,
		replayPoll: defaultReplayPoll,
	}
}

// CreateOrder validates and stores a pending order. When an idempotency key
// is given and was already used by the same buyer, the earlier order is
// returned instead.
func (s *orderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	if !in.Buyer.IsBuyer() {
		return nil, domain.ErrInvalidCredentials
	}

	claim, err := s.claim(ctx, in)
	if err != nil {
		return nil, err
	}
	if claim.replay != nil {
		return &ports.OrderResult{Order: claim.replay, Replayed: true}, nil
	}

	created, err := s.create(ctx, in)
	if claim.owned {
		s.settle(ctx, in, created)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("order_id", created.ID).
		Int64("business_id", created.BusinessID).
		Int64("buyer_id", created.BuyerID).
		Int64("quantity", created.Quantity).
		Str("price", created.Price.String()).
		Msg("order created")

	return &ports.OrderResult{Order: created}, nil
}

func (s *orderService) create(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	business, err := s.businesses.FindByID(ctx, in.BusinessID)
	if err != nil {
		return nil, err
	}

	if err := s.validateTerms(business, in.Quantity, in.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.orders.Create(ctx, &domain.Order{
		BusinessID: business.ID,
		BuyerID:    in.Buyer.ID,
		Quantity:   in.Quantity.IntPart(),
		Price:      in.Price.Round(domain.PriceScale),
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("business_id", business.ID).Msg("failed to create order")
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.audit(ctx, created, nil, in.Buyer.ID)
	return created, nil
}

// keyClaim is the outcome of resolving an idempotency key. A zero value
// means the request runs without one.
type keyClaim struct {
	owned  bool
	replay *domain.Order
}

// claim resolves the request's idempotency key. The caller either owns the
// key, gets the order an earlier request created under it, or runs without
// the key when the store fails. While another request holds the key the
// caller waits up to replayWait for it to finish.
func (s *orderService) claim(ctx context.Context, in ports.CreateOrderInput) (keyClaim, error) {
	if in.IdempotencyKey == "" {
		return keyClaim{}, nil
	}

	log := s.log.With().Int64("buyer_id", in.Buyer.ID).Str("idempotency_key", in.IdempotencyKey).Logger()
	deadline := time.Now().Add(s.replayWait)

	for {
		reserved, err := s.idem.Reserve(ctx, in.Buyer.ID, in.IdempotencyKey)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency reserve failed, processing anyway")
			return keyClaim{}, nil
		}
		if reserved {
			return keyClaim{owned: true}, nil
		}

		orderID, pending, err := s.idem.Lookup(ctx, in.Buyer.ID, in.IdempotencyKey)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency lookup failed, processing anyway")
			return keyClaim{}, nil
		}
		if orderID != 0 {
			order, err := s.orders.FindByID(ctx, orderID)
			if err != nil || order.BuyerID != in.Buyer.ID || order.BusinessID != in.BusinessID {
				log.Warn().Err(err).Int64("order_id", orderID).Msg("stale idempotency key ignored")
				return keyClaim{}, nil
			}
			log.Info().Int64("order_id", order.ID).Msg("idempotent replay")
			return keyClaim{replay: order}, nil
		}

		if time.Now().After(deadline) {
			return keyClaim{}, domain.ErrIdempotencyKeyInFlight
		}
		if !pending {
			// released or expired since Reserve; try to take it
			continue
		}
		select {
		case <-ctx.Done():
			return keyClaim{}, ctx.Err()
		case <-time.After(s.replayPoll):
		}
	}
}

// settle completes an owned key with the created order, or releases it so a
// retry with the same key runs again. Failures are logged and not returned.
func (s *orderService) settle(ctx context.Context, in ports.CreateOrderInput, created *domain.Order) {
	ctx = context.WithoutCancel(ctx)

	if created == nil {
		if err := s.idem.Release(ctx, in.Buyer.ID, in.IdempotencyKey); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
		}
		return
	}
	if err := s.idem.Complete(ctx, in.Buyer.ID, in.IdempotencyKey, created.ID); err != nil {
		s.log.Warn().Err(err).Int64("order_id", created.ID).Msg("failed to store idempotency key")
	}
}

// UpdateOrder changes the quantity and price of an order that has not been
// accepted. Any buyer may update any such order.
func (s *orderService) UpdateOrder(ctx context.Context, in ports.UpdateOrderInput) (*domain.Order, error) {
	if !in.Buyer.IsBuyer() {
		return nil, domain.ErrInvalidCredentials
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Editable() {
		return nil, domain.ErrOrderAlreadyAccepted
	}

	quantity := decimal.NewFromInt(order.Quantity)
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	price := order.Price
	if in.Price != nil {
		price = *in.Price
	}

	business, err := s.businesses.FindByID(ctx, order.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if err := s.validateTerms(business, &quantity, &price); err != nil {
		return nil, err
	}

	next := *order
	next.Quantity = quantity.IntPart()
	next.Price = price.Round(domain.PriceScale)
	next.UpdatedAt = time.Now().UTC()

	updated, err := s.orders.UpdateTerms(ctx, &next, order.Status)
	if errors.Is(err, domain.ErrStatusConflict) {
		current, findErr := s.orders.FindByID(ctx, order.ID)
		if findErr == nil && !current.Status.Editable() {
			return nil, domain.ErrOrderAlreadyAccepted
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.log.Info().
		Int64("order_id", updated.ID).
		Int64("quantity", updated.Quantity).
		Str("price", updated.Price.String()).
		Msg("order updated")
	return updated, nil
}

func (s *orderService) AcceptOrder(ctx context.Context, caller *domain.User, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, caller, orderID, domain.StatusAccepted)
}

func (s *orderService) RejectOrder(ctx context.Context, caller *domain.User, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, caller, orderID, domain.StatusRejected)
}

// transition moves an order to next. Only the owner of the order's business
// may do so; the status write is conditional on the status read here.
func (s *orderService) transition(ctx context.Context, caller *domain.User, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	business, err := s.businesses.FindByID(ctx, order.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", next, err)
	}
	if !caller.IsOwner() || !business.OwnedBy(caller) {
		return nil, domain.ErrNotBusinessOwner
	}

	if err := order.Status.TransitionError(next); err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next)
	if errors.Is(err, domain.ErrStatusConflict) {
		current, findErr := s.orders.FindByID(ctx, order.ID)
		if findErr != nil {
			return nil, err
		}
		if guardErr := current.Status.TransitionError(next); guardErr != nil {
			return nil, guardErr
		}
		if current.Status == next {
			return current, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", next, err)
	}

	from := order.Status
	s.audit(ctx, updated, &from, caller.ID)

	s.log.Info().
		Int64("order_id", updated.ID).
		Int64("business_id", updated.BusinessID).
		Str("from", from.String()).
		Str("to", next.String()).
		Msg("order " + next.String())
	return updated, nil
}

// ListOrders returns every order of a business with its buyer's username.
// Any owner may list any business's orders.
func (s *orderService) ListOrders(ctx context.Context, businessID int64) ([]*domain.OrderWithBuyer, error) {
	if _, err := s.businesses.FindByID(ctx, businessID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) FindBusiness(ctx context.Context, businessID int64) (*domain.Business, error) {
	return s.businesses.FindByID(ctx, businessID)
}

func (s *orderService) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// validateTerms checks quantity and price together with the inventory rule,
// so that every violation is reported in one response.
func (s *orderService) validateTerms(business *domain.Business, quantity, price *decimal.Decimal) error {
	ve := &domain.ValidationError{}

	err := s.validate.Struct(&orderTerms{Quantity: quantity, Price: price})
	if err != nil {
		var fieldErrs *domain.ValidationError
		if !errors.As(err, &fieldErrs) {
			return err
		}
		ve.Merge(fieldErrs)
	}

	if quantity == nil || !business.CanFill(*quantity) {
		ve.Add("quantity", domain.MsgInsufficientShares)
	}
	return ve.OrNil()
}

// audit appends to the order trail. Failures are logged and not returned.
func (s *orderService) audit(ctx context.Context, order *domain.Order, from *domain.OrderStatus, actorID int64) {
	event := &domain.OrderEvent{
		OrderID:    order.ID,
		From:       from,
		To:         order.Status,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to insert order event")
	}
}
