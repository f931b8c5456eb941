// Package storage opens the repository set selected by STORAGE_DRIVER and
// the optional Redis idempotency store.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/share-marketplace/internal/infrastructure/db/mongo"
	"github.com/99minutos/share-marketplace/internal/infrastructure/db/postgres"
	redisdb "github.com/99minutos/share-marketplace/internal/infrastructure/db/redis"
	"github.com/99minutos/share-marketplace/internal/pkg/config"
)

// Store bundles the repositories of one driver with its lifecycle hooks.
type Store struct {
	Driver     string
	Users      ports.UserRepository
	Businesses ports.BusinessRepository
	Orders     ports.OrderRepository
	Events     ports.OrderEventRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Migrate applies the schema (postgres) or indexes (mongo).
func (s *Store) Migrate(ctx context.Context) error { return s.migrate(ctx) }

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error { return s.close(ctx) }

func noop(context.Context) error { return nil }

// NewMemoryStore returns a Store over a fresh in-process database.
func NewMemoryStore() *Store {
	db := memory.New()
	return &Store{
		Driver:     config.DriverMemory,
		Users:      memory.NewUserRepository(db),
		Businesses: memory.NewBusinessRepository(db),
		Orders:     memory.NewOrderRepository(db),
		Events:     memory.NewOrderEventRepository(db),
		ping:       db.Ping,
		migrate:    noop,
		close:      noop,
	}
}

// Open connects to the configured driver. When AUTO_MIGRATE is set the
// schema is applied before returning.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	var (
		store *Store
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err = openPostgres(ctx, cfg.Postgres)
	case config.DriverMongo:
		store, err = openMongo(ctx, cfg.Mongo)
	case config.DriverMemory:
		store = NewMemoryStore()
	default:
		err = fmt.Errorf("storage: unknown driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		log.Info().Str("driver", store.Driver).Msg("schema up to date")
	}

	log.Info().Str("driver", store.Driver).Msg("storage ready")
	return store, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:     config.DriverPostgres,
		Users:      postgres.NewUserRepository(db),
		Businesses: postgres.NewBusinessRepository(db),
		Orders:     postgres.NewOrderRepository(db),
		Events:     postgres.NewOrderEventRepository(db),
		ping:       db.PingContext,
		migrate:    func(context.Context) error { return postgres.Migrate(db) },
		close:      func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.URI, Database: cfg.Database})
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:     config.DriverMongo,
		Users:      mongodb.NewUserRepository(db),
		Businesses: mongodb.NewBusinessRepository(db),
		Orders:     mongodb.NewOrderRepository(db),
		Events:     mongodb.NewOrderEventRepository(db),
		ping:       func(ctx context.Context) error { return client.Ping(ctx, nil) },
		migrate:    func(ctx context.Context) error { return mongodb.EnsureIndexes(ctx, db) },
		close:      client.Disconnect,
	}, nil
}

// Idempotency is the Redis-backed Idempotency-Key store, or a disabled one.
type Idempotency struct {
	// Store is nil when Redis is disabled or unreachable at startup.
	Store *redisdb.IdempotencyStore
	close func() error
}

// Enabled reports whether a Redis store is in use.
func (i *Idempotency) Enabled() bool { return i.Store != nil }

// Ping reports whether Redis is reachable. A disabled store is always healthy.
func (i *Idempotency) Ping(ctx context.Context) error {
	if i.Store == nil {
		return nil
	}
	return i.Store.Ping(ctx)
}

func (i *Idempotency) Close() error {
	if i.close == nil {
		return nil
	}
	return i.close()
}

// OpenIdempotency connects to Redis when enabled. A connection failure is
// logged and the service runs without idempotent replays.
func OpenIdempotency(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) *Idempotency {
	if !cfg.Enabled {
		log.Info().Msg("redis disabled, idempotency keys are ignored")
		return &Idempotency{}
	}

	store, err := redisdb.Open(ctx, redisConfig(cfg))
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, idempotency keys are ignored")
		return &Idempotency{}
	}

	log.Info().Str("addr", cfg.Addr).Int("pool_size", cfg.PoolSize).Msg("redis connected")
	return &Idempotency{Store: store, close: store.Close}
}

func redisConfig(cfg config.RedisConfig) redisdb.Config {
	return redisdb.Config{
		Addr:           cfg.Addr,
		DB:             cfg.DB,
		PoolSize:       cfg.PoolSize,
		DialTimeout:    cfg.DialTimeout,
		IOTimeout:      cfg.IOTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
}
