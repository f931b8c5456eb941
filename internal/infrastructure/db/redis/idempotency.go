package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// pending marks a key reserved by a request that has not created its order yet.
const pending = "pending"

// IdempotencyStore maps a buyer's Idempotency-Key to the order it created.
// Key format: idempotency:order:<buyer_id>:<key>
// A key holds "pending" between Reserve and Complete, then the order id.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for buyerID with SET NX. It returns false when another
// request already reserved or completed the key.
func (s *IdempotencyStore) Reserve(ctx context.Context, buyerID int64, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(buyerID, key), pending, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Lookup returns the order id stored under key for buyerID. pending is true
// while the reserving request is still running; an unknown key yields 0, false.
func (s *IdempotencyStore) Lookup(ctx context.Context, buyerID int64, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, idempotencyKey(buyerID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return parseEntry(val)
}

// Complete stores orderID under a key reserved by the caller.
func (s *IdempotencyStore) Complete(ctx context.Context, buyerID int64, key string, orderID int64) error {
	if err := s.client.Set(ctx, idempotencyKey(buyerID, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation whose request did not create an order, so a
// retry with the same key runs again.
func (s *IdempotencyStore) Release(ctx context.Context, buyerID int64, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(buyerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}

func parseEntry(val string) (orderID int64, isPending bool, err error) {
	if val == pending {
		return 0, true, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q", val)
	}
	return id, false, nil
}

func idempotencyKey(buyerID int64, key string) string {
	return fmt.Sprintf("idempotency:order:%d:%s", buyerID, key)
}
