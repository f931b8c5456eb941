// Package memory is an in-process implementation of the repository ports.
// It backs STORAGE_DRIVER=memory and the HTTP workflow tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// DB holds every table behind a single lock so that joins and conditional
// updates see a consistent snapshot.
type DB struct {
	mu sync.RWMutex

	users      map[int64]*domain.User
	usernames  map[string]int64
	businesses map[int64]*domain.Business
	orders     map[int64]*domain.Order
	events     []domain.OrderEvent

	userSeq, businessSeq, orderSeq int64
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:      make(map[int64]*domain.User),
		usernames:  make(map[string]int64),
		businesses: make(map[int64]*domain.Business),
		orders:     make(map[int64]*domain.Order),
	}
}

// Ping always succeeds.
func (db *DB) Ping(context.Context) error { return nil }

// Events returns a copy of the audit trail.
func (db *DB) Events() []domain.OrderEvent {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]domain.OrderEvent(nil), db.events...)
}

// ── Users ───────────────────────────────────────────────────────────────────

type UserRepository struct{ db *DB }

func NewUserRepository(db *DB) ports.UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.usernames[user.Username]; taken {
		return nil, domain.ErrUserExists
	}
	r.db.userSeq++
	stored := *user
	stored.ID = r.db.userSeq
	r.db.users[stored.ID] = &stored
	r.db.usernames[stored.Username] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.usernames[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *r.db.users[id]
	return &out, nil
}

// ── Businesses ──────────────────────────────────────────────────────────────

type BusinessRepository struct{ db *DB }

func NewBusinessRepository(db *DB) ports.BusinessRepository { return &BusinessRepository{db: db} }

func (r *BusinessRepository) Create(_ context.Context, b *domain.Business) (*domain.Business, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[b.OwnerID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.db.businessSeq++
	stored := *b
	stored.ID = r.db.businessSeq
	r.db.businesses[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *BusinessRepository) FindByID(_ context.Context, id int64) (*domain.Business, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.businesses[id]
	if !ok {
		return nil, domain.ErrBusinessNotFound
	}
	out := *b
	return &out, nil
}

func (r *BusinessRepository) ListAvailable(_ context.Context) ([]*domain.Business, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.Business, 0, len(r.db.businesses))
	for _, b := range r.db.businesses {
		if b.Available() {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Orders ──────────────────────────────────────────────────────────────────

type OrderRepository struct{ db *DB }

func NewOrderRepository(db *DB) ports.OrderRepository { return &OrderRepository{db: db} }

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.businesses[o.BusinessID]; !ok {
		return nil, domain.ErrBusinessNotFound
	}
	if _, ok := r.db.users[o.BuyerID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.db.orderSeq++
	stored := *o
	stored.ID = r.db.orderSeq
	r.db.orders[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *OrderRepository) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	o, ok := r.db.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

// conditional loads the order for a compare-and-swap. Callers hold the write lock.
func (r *OrderRepository) conditional(id int64, expected domain.OrderStatus) (*domain.Order, error) {
	stored, ok := r.db.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if stored.Status != expected {
		return nil, domain.ErrStatusConflict
	}
	return stored, nil
}

func (r *OrderRepository) UpdateTerms(_ context.Context, o *domain.Order, expected domain.OrderStatus) (*domain.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, err := r.conditional(o.ID, expected)
	if err != nil {
		return nil, err
	}
	stored.Quantity = o.Quantity
	stored.Price = o.Price
	stored.UpdatedAt = o.UpdatedAt

	out := *stored
	return &out, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id int64, expected, next domain.OrderStatus) (*domain.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, err := r.conditional(id, expected)
	if err != nil {
		return nil, err
	}
	stored.Status = next
	stored.UpdatedAt = time.Now().UTC()

	out := *stored
	return &out, nil
}

func (r *OrderRepository) ListByBusiness(_ context.Context, businessID int64) ([]*domain.OrderWithBuyer, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.OrderWithBuyer, 0)
	for _, o := range r.db.orders {
		if o.BusinessID != businessID {
			continue
		}
		row := &domain.OrderWithBuyer{Order: *o}
		if u, ok := r.db.users[o.BuyerID]; ok {
			row.BuyerUsername = u.Username
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepository) ListByBusinessAndStatus(_ context.Context, businessID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.db.orders {
		if o.BusinessID == businessID && o.Status == status {
			c := *o
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Order events ────────────────────────────────────────────────────────────

type OrderEventRepository struct{ db *DB }

func NewOrderEventRepository(db *DB) ports.OrderEventRepository {
	return &OrderEventRepository{db: db}
}

func (r *OrderEventRepository) InsertEvent(_ context.Context, event *domain.OrderEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.events = append(r.db.events, *event)
	return nil
}
