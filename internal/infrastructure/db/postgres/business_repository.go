package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

var businessColumns = []string{"id", "name", "shares_available", "owner_id", "created_at", "updated_at"}

type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) ports.BusinessRepository {
	return &BusinessRepository{db: db}
}

func scanBusiness(row rowScanner) (*domain.Business, error) {
	var b domain.Business
	if err := row.Scan(&b.ID, &b.Name, &b.SharesAvailable, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.
		Insert(TableBusinesses).
		Columns("name", "shares_available", "owner_id", "created_at", "updated_at").
		Values(b.Name, b.SharesAvailable, b.OwnerID, b.CreatedAt, b.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	created := *b
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert business: %w", err)
	}
	return &created, nil
}

func (r *BusinessRepository) FindByID(ctx context.Context, id int64) (*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Select(businessColumns...).From(TableBusinesses).Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}

	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find business: %w", err)
	}
	return b, nil
}

func availableBusinessesQuery() (string, []any, error) {
	return psql.Select(businessColumns...).
		From(TableBusinesses).
		Where("shares_available > ?", 0).
		OrderBy("id").
		ToSql()
}

func (r *BusinessRepository) ListAvailable(ctx context.Context) ([]*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := availableBusinessesQuery()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
