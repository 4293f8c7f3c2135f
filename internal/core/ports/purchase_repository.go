package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
)

// PurchaseFilter narrows a header listing. A nil ClientID lists every purchase.
type PurchaseFilter struct {
	ClientID *uuid.UUID
}

// PurchaseRepository persists purchase headers and their line items.
// Every write is a single statement; grouping is the caller's concern.
type PurchaseRepository interface {
	CreateHeader(ctx context.Context, p *domain.Purchase) error
	AddLineItem(ctx context.Context, item *domain.LineItem) error
	// Finalize sets the total and marks the header persisted.
	Finalize(ctx context.Context, id uuid.UUID, total decimal.Decimal) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	// ListProducts returns the purchase's products in line insertion order.
	ListProducts(ctx context.Context, purchaseID uuid.UUID) ([]domain.PurchasedProduct, error)
	List(ctx context.Context, filter PurchaseFilter) ([]domain.Purchase, error)
}

// PurchaseStore bundles the repositories a purchase write touches, all bound
// to the same unit of work.
type PurchaseStore struct {
	Users     UserRepository
	Products  ProductFinder
	Purchases PurchaseRepository
}

// PurchaseTxRunner runs fn against a PurchaseStore. Atomic runners commit when
// fn returns nil and roll back otherwise; non-atomic runners let every write
// land as it happens. fn may run more than once if the runner retries a
// transient commit failure.
type PurchaseTxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store PurchaseStore) error) error
	Atomic() bool
}
