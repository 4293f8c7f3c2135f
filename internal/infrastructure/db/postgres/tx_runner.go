package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/store-api/internal/core/ports"
)

var (
	_ ports.PurchaseTxRunner = (*TxRunner)(nil)
	_ ports.PurchaseTxRunner = (*AutoCommitRunner)(nil)
)

// Store returns repositories bound to q.
func Store(q Querier) ports.PurchaseStore {
	return ports.PurchaseStore{
		Users:     NewUserRepository(q),
		Products:  NewProductRepository(q),
		Purchases: NewPurchaseRepository(q),
	}
}

// TxRunner runs fn inside one transaction with repositories bound to it.
// Any error rolls back every write fn made.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.PurchaseStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, Store(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *TxRunner) Atomic() bool { return true }

// AutoCommitRunner runs fn against the pool, so each statement commits on its
// own and a failure part way through leaves earlier writes in place.
type AutoCommitRunner struct {
	pool *pgxpool.Pool
}

func NewAutoCommitRunner(pool *pgxpool.Pool) *AutoCommitRunner {
	return &AutoCommitRunner{pool: pool}
}

func (r *AutoCommitRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.PurchaseStore) error) error {
	return fn(ctx, Store(r.pool))
}

func (r *AutoCommitRunner) Atomic() bool { return false }
