// Package postgres implements the repository ports on PostgreSQL through
// database/sql and lib/pq. Statements are built with squirrel.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adlio/schema"
	"github.com/lib/pq"
)

const (
	DriverName     = "postgres"
	defaultTimeout = 10 * time.Second

	TableUsers       = "users"
	TableBusinesses  = "businesses"
	TableOrders      = "orders"
	TableOrderEvents = "order_events"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

//go:embed schema.sql
var initialSchema string

// migrations are applied in order and recorded by adlio/schema; never edit
// an entry once released, append a new one.
var migrations = []*schema.Migration{
	{ID: "2024-03-01 initial schema", Script: initialSchema},
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Config captures the settings for a PostgreSQL connection.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Connect opens a pool and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	if err := schema.NewMigrator().Apply(db, migrations); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...any) error
}
