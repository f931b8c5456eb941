package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

var orderColumns = []string{"id", "business_id", "buyer_id", "quantity", "price", "status", "created_at", "updated_at"}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) ports.OrderRepository {
	return &OrderRepository{db: db}
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

func scanOrder(row rowScanner, extra ...any) (*domain.Order, error) {
	var (
		o      domain.Order
		status int16
	)
	dest := append([]any{&o.ID, &o.BusinessID, &o.BuyerID, &o.Quantity, &o.Price, &status, &o.CreatedAt, &o.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.
		Insert(TableOrders).
		Columns("business_id", "buyer_id", "quantity", "price", "status", "created_at", "updated_at").
		Values(o.BusinessID, o.BuyerID, o.Quantity, o.Price, int16(o.Status), o.CreatedAt, o.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	created := *o
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return nil, domain.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Select(orderColumns...).From(TableOrders).Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

// conditionalUpdate adds the status guard and RETURNING clause shared by
// the compare-and-swap writes.
func conditionalUpdate(b sq.UpdateBuilder, id int64, expected domain.OrderStatus) sq.UpdateBuilder {
	return b.
		Where(sq.Eq{"id": id, "status": int16(expected)}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))
}

func updateTermsQuery(o *domain.Order, expected domain.OrderStatus) (string, []any, error) {
	return conditionalUpdate(
		psql.Update(TableOrders).
			Set("quantity", o.Quantity).
			Set("price", o.Price).
			Set("updated_at", o.UpdatedAt),
		o.ID, expected,
	).ToSql()
}

func updateStatusQuery(id int64, expected, next domain.OrderStatus, at time.Time) (string, []any, error) {
	return conditionalUpdate(
		psql.Update(TableOrders).
			Set("status", int16(next)).
			Set("updated_at", at),
		id, expected,
	).ToSql()
}

func (r *OrderRepository) UpdateTerms(ctx context.Context, o *domain.Order, expected domain.OrderStatus) (*domain.Order, error) {
	query, args, err := updateTermsQuery(o, expected)
	if err != nil {
		return nil, err
	}
	return r.swap(ctx, o.ID, query, args)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus) (*domain.Order, error) {
	query, args, err := updateStatusQuery(id, expected, next, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return r.swap(ctx, id, query, args)
}

// swap runs a conditional update. When no row matched it tells a missing
// order apart from a status conflict.
func (r *OrderRepository) swap(ctx context.Context, id int64, query string, args []any) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrStatusConflict
}

func ordersWithBuyerQuery(businessID int64) (string, []any, error) {
	return psql.Select(append(prefixed("o", orderColumns), "u.username")...).
		From(TableOrders + " o").
		Join(TableUsers + " u ON u.id = o.buyer_id").
		Where("o.business_id = ?", businessID).
		OrderBy("o.id").
		ToSql()
}

func (r *OrderRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*domain.OrderWithBuyer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := ordersWithBuyerQuery(businessID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.OrderWithBuyer, 0)
	for rows.Next() {
		var username string
		o, err := scanOrder(rows, &username)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, &domain.OrderWithBuyer{Order: *o, BuyerUsername: username})
	}
	return out, rows.Err()
}

func (r *OrderRepository) ListByBusinessAndStatus(ctx context.Context, businessID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Select(orderColumns...).
		From(TableOrders).
		Where(sq.Eq{"business_id": businessID, "status": int16(status)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
