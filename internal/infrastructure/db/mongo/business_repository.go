package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

type BusinessRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewBusinessRepository(db *mongo.Database) ports.BusinessRepository {
	return &BusinessRepository{col: db.Collection(collBusinesses), seq: newSequence(db, collBusinesses)}
}

type businessDoc struct {
	ID              int64     `bson:"_id"`
	Name            string    `bson:"name"`
	SharesAvailable int64     `bson:"shares_available"`
	OwnerID         int64     `bson:"owner_id"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func (d *businessDoc) toDomain() *domain.Business {
	return &domain.Business{
		ID:              d.ID,
		Name:            d.Name,
		SharesAvailable: d.SharesAvailable,
		OwnerID:         d.OwnerID,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return nil, err
	}

	doc := businessDoc{
		ID:              id,
		Name:            b.Name,
		SharesAvailable: b.SharesAvailable,
		OwnerID:         b.OwnerID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert business: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BusinessRepository) FindByID(ctx context.Context, id int64) (*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc businessDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BusinessRepository) ListAvailable(ctx context.Context) ([]*domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"shares_available": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []businessDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode businesses: %w", err)
	}

	out := make([]*domain.Business, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
