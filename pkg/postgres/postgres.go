// Package postgres implements a pgx connection pool with a squirrel query builder.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

const (
	_defaultMaxPoolSize    = 10
	_defaultConnAttempts   = 10
	_defaultConnTimeout    = time.Second
	_defaultAcquireTimeout = 5 * time.Second
)

type Postgres struct {
	maxPoolSize    int
	connAttempts   int
	connTimeout    time.Duration
	acquireTimeout time.Duration

	Builder squirrel.StatementBuilderType
	Pool    *pgxpool.Pool
}

func New(url string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		maxPoolSize:    _defaultMaxPoolSize,
		connAttempts:   _defaultConnAttempts,
		connTimeout:    _defaultConnTimeout,
		acquireTimeout: _defaultAcquireTimeout,
	}

	for _, opt := range opts {
		opt(pg)
	}

	pg.Builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("Postgres - New - pgxpool.ParseConfig: %w", err)
	}

	poolConfig.MaxConns = int32(pg.maxPoolSize)

	for pg.connAttempts > 0 {
		pg.Pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err == nil {
			err = pg.Pool.Ping(context.Background())
			if err == nil {
				break
			}
			pg.Pool.Close()
		}

		log.Printf("Postgres is trying to connect, attempts left: %d", pg.connAttempts)

		time.Sleep(pg.connTimeout)

		pg.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Postgres - New - connAttempts == 0: %w", err)
	}

	return pg, nil
}

// Acquire borrows a pooled connection, bounding the wait by the acquire timeout.
// The caller must Release the returned connection.
func (p *Postgres) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.Pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("Postgres - Acquire: %w", errs.ErrPoolExhausted)
		}

		return nil, fmt.Errorf("Postgres - Acquire - p.Pool.Acquire: %w", err)
	}

	return conn, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
