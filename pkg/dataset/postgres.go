package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresSource reads listings from a "listings" table with the same
// columns as the SQLite schema.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool for dsn and pings it, retrying with
// exponential backoff until maxElapsed passes.
func ConnectPostgres(ctx context.Context, logger *zap.Logger, dsn string, maxElapsed time.Duration) (*PostgresSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	var connect backoff.Operation[*pgxpool.Pool] = func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	}

	pool, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("postgres not reachable, retrying",
				zap.String("op", "dataset.ConnectPostgres"),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) ([]Listing, error) {
	rows, err := s.pool.Query(ctx, selectListings)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.Year, &l.Mileage, &l.ListPrice, &l.Price, &l.Condition); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	if len(listings) == 0 {
		return nil, ErrNoListings
	}
	return listings, nil
}
