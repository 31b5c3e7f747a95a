// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/tidemush/tidemush/internal/world"
)

// Querier is the read/write surface shared by pgxpool.Pool and pgx.Tx.
// Repositories resolve their Querier per call so statements issued inside
// an ambient transaction land on that transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// QuerierFrom returns the transaction carried by ctx, or fallback when no
// transaction is in flight.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// Transactor implements world.Transactor over a pgx pool. Nested calls
// join the ambient transaction rather than opening a savepoint, so a
// failure anywhere rolls back the outermost unit of work.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction runs fn inside a transaction. When ctx already carries
// one, fn joins it and commit/rollback stays with the outermost caller.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("STORE_TX_BEGIN_FAILED").Wrap(err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // original error takes precedence
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("STORE_TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ world.Transactor = (*Transactor)(nil)
