package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/store-api/internal/core/ports"
)

var (
	_ ports.PurchaseTxRunner = (*SessionTxRunner)(nil)
	_ ports.PurchaseTxRunner = (*DirectRunner)(nil)
)

// Store returns the repositories for db. Operations join a transaction when
// they run with a session context.
func Store(db *mongo.Database) ports.PurchaseStore {
	return ports.PurchaseStore{
		Users:     NewUserRepository(db),
		Products:  NewProductRepository(db),
		Purchases: NewPurchaseRepository(db),
	}
}

// SessionTxRunner runs fn inside a multi-document transaction. It needs a
// replica set or sharded cluster.
type SessionTxRunner struct {
	client *mongo.Client
	store  ports.PurchaseStore
}

func NewSessionTxRunner(client *mongo.Client, db *mongo.Database) *SessionTxRunner {
	return &SessionTxRunner{client: client, store: Store(db)}
}

func (r *SessionTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.PurchaseStore) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, r.store)
	})
	return err
}

func (r *SessionTxRunner) Atomic() bool { return true }

// DirectRunner runs fn without a session; every write stands on its own.
type DirectRunner struct {
	store ports.PurchaseStore
}

func NewDirectRunner(db *mongo.Database) *DirectRunner {
	return &DirectRunner{store: Store(db)}
}

func (r *DirectRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.PurchaseStore) error) error {
	return fn(ctx, r.store)
}

func (r *DirectRunner) Atomic() bool { return false }
