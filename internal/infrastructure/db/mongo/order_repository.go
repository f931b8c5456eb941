package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

type OrderRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewOrderRepository(db *mongo.Database) ports.OrderRepository {
	return &OrderRepository{col: db.Collection(collOrders), seq: newSequence(db, collOrders)}
}

type orderDoc struct {
	ID         int64                `bson:"_id"`
	BusinessID int64                `bson:"business_id"`
	BuyerID    int64                `bson:"buyer_id"`
	Quantity   int64                `bson:"quantity"`
	Price      primitive.Decimal128 `bson:"price"`
	Status     int32                `bson:"status"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func newOrderDoc(o *domain.Order) (*orderDoc, error) {
	price, err := toDecimal128(o.Price)
	if err != nil {
		return nil, fmt.Errorf("encode price: %w", err)
	}
	return &orderDoc{
		ID:         o.ID,
		BusinessID: o.BusinessID,
		BuyerID:    o.BuyerID,
		Quantity:   o.Quantity,
		Price:      price,
		Status:     int32(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

func (d *orderDoc) toDomain() (*domain.Order, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, fmt.Errorf("decode price of order %d: %w", d.ID, err)
	}
	return &domain.Order{
		ID:         d.ID,
		BusinessID: d.BusinessID,
		BuyerID:    d.BuyerID,
		Quantity:   d.Quantity,
		Price:      price,
		Status:     domain.OrderStatus(d.Status),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return nil, err
	}

	stored := *o
	stored.ID = id
	doc, err := newOrderDoc(&stored)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &stored, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain()
}

func (r *OrderRepository) UpdateTerms(ctx context.Context, o *domain.Order, expected domain.OrderStatus) (*domain.Order, error) {
	price, err := toDecimal128(o.Price)
	if err != nil {
		return nil, fmt.Errorf("encode price: %w", err)
	}
	return r.swap(ctx, o.ID, expected, bson.M{
		"quantity":   o.Quantity,
		"price":      price,
		"updated_at": o.UpdatedAt,
	})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus) (*domain.Order, error) {
	return r.swap(ctx, id, expected, bson.M{
		"status":     int32(next),
		"updated_at": time.Now().UTC(),
	})
}

// swap applies set only while the order is still in expected.
func (r *OrderRepository) swap(ctx context.Context, id int64, expected domain.OrderStatus, set bson.M) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": int32(expected)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update order: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return nil, domain.ErrStatusConflict
}

type orderWithBuyerDoc struct {
	orderDoc `bson:",inline"`
	Buyer    struct {
		Username string `bson:"username"`
	} `bson:"buyer"`
}

func (r *OrderRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*domain.OrderWithBuyer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"business_id": businessID}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collUsers,
			"localField":   "buyer_id",
			"foreignField": "_id",
			"as":           "buyer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$buyer", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderWithBuyerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]*domain.OrderWithBuyer, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.OrderWithBuyer{Order: *o, BuyerUsername: docs[i].Buyer.Username})
	}
	return out, nil
}

func (r *OrderRepository) ListByBusinessAndStatus(ctx context.Context, businessID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"business_id": businessID, "status": int32(status)},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
