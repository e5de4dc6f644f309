package db

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultDBUser is used when no postgres user is configured. Local dev
// setups create the roxcoach role via the schema bootstrap script.
const defaultDBUser = "roxcoach"

const defaultMaxConnIdleTime = 5 * time.Minute

type NewDBPoolParams struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBName         string
	TracingEnabled bool
}

// NewDBPool creates the pgx connection pool for the service database.
// When tracing is enabled every query gets its own otel span.
func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	user := params.DBUser
	if user == "" {
		user = defaultDBUser
	}

	connString := fmt.Sprintf(
		"postgres://%s@%s:%s/%s",
		user, params.DBHost, params.DBPort, params.DBName,
	)
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return pool, nil
}
