package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientName tags marketplace connections in CLIENT LIST.
const ClientName = "share-marketplace"

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = time.Second
	defaultPoolSize    = 10
)

// Config captures the settings of the Idempotency-Key store connection.
type Config struct {
	Addr     string
	DB       int
	PoolSize int
	// DialTimeout also bounds the startup ping.
	DialTimeout time.Duration
	// IOTimeout applies to reads and writes; a slow Redis must not stall
	// order creation for longer than this.
	IOTimeout      time.Duration
	IdempotencyTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = defaultIOTimeout
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = defaultIdempotencyTTL
	}
	return c
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		DB:           c.DB,
		ClientName:   ClientName,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.IOTimeout,
		WriteTimeout: c.IOTimeout,
	}
}

// Connect initialises a Redis client and validates connectivity with a ping
// bounded by the dial timeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// Open connects and returns an IdempotencyStore keeping entries for
// cfg.IdempotencyTTL. Closing the store closes the client.
func Open(ctx context.Context, cfg Config) (*IdempotencyStore, error) {
	cfg = cfg.withDefaults()
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewIdempotencyStore(client, cfg.IdempotencyTTL), nil
}
