package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// WithConn runs f on the transaction bound to ctx if there is one, otherwise
// on an exclusively borrowed connection. Borrowing is bounded by the acquire
// timeout, so a busy pool surfaces ErrPoolExhausted instead of blocking; the
// connection is released on every exit path.
func (p *Postgres) WithConn(ctx context.Context, f func(Executor) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return f(tx)
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithConn - p.Acquire: %w", err)
	}
	defer conn.Release()

	return f(conn)
}

// WithinTransaction runs f inside one transaction on an exclusively borrowed
// connection. The transaction is rolled back if f returns an error, committed
// otherwise; the connection is released on every exit path.
func (p *Postgres) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - p.Acquire: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - conn.Begin: %w", err)
	}

	err = f(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(fmt.Errorf("Postgres - WithinTransaction: %w", err), rbErr)
		}

		return fmt.Errorf("Postgres - WithinTransaction: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - tx.Commit: %w", err)
	}

	return nil
}
