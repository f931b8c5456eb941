package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// OrderEventRepository implements ports.OrderEventRepository using MongoDB.
type OrderEventRepository struct {
	col *mongo.Collection
}

// NewOrderEventRepository creates a new OrderEventRepository.
func NewOrderEventRepository(db *mongo.Database) ports.OrderEventRepository {
	return &OrderEventRepository{col: db.Collection(collOrderEvents)}
}

func eventDocument(event *domain.OrderEvent) bson.M {
	doc := bson.M{
		"order_id":    event.OrderID,
		"to_status":   int32(event.To),
		"actor_id":    event.ActorID,
		"occurred_at": event.OccurredAt.UTC(),
	}
	if event.From != nil {
		doc["from_status"] = int32(*event.From)
	}
	return doc
}

// InsertEvent persists an order transition to the order_events audit collection.
func (r *OrderEventRepository) InsertEvent(ctx context.Context, event *domain.OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, eventDocument(event)); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}
