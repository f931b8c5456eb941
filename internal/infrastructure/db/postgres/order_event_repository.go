package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

type OrderEventRepository struct {
	db *sql.DB
}

func NewOrderEventRepository(db *sql.DB) ports.OrderEventRepository {
	return &OrderEventRepository{db: db}
}

func insertEventQuery(e *domain.OrderEvent) (string, []any, error) {
	var from sql.NullInt16
	if e.From != nil {
		from = sql.NullInt16{Int16: int16(*e.From), Valid: true}
	}
	return psql.
		Insert(TableOrderEvents).
		Columns("order_id", "from_status", "to_status", "actor_id", "occurred_at").
		Values(e.OrderID, from, int16(e.To), e.ActorID, e.OccurredAt).
		ToSql()
}

// InsertEvent appends a row to the order_events audit table.
func (r *OrderEventRepository) InsertEvent(ctx context.Context, event *domain.OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := insertEventQuery(event)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}
