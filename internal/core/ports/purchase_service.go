package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID uuid.UUID
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// PurchaseItemInput is one requested product and quantity.
type PurchaseItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreatePurchaseInput carries a purchase request. Items are processed in order.
type CreatePurchaseInput struct {
	ClientID       uuid.UUID
	Items          []PurchaseItemInput
	IdempotencyKey string
}

// CreatePurchaseResult is returned by CreatePurchase.
type CreatePurchaseResult struct {
	Purchase *domain.PurchaseDetail
	// Replayed is true when the Idempotency-Key matched an earlier purchase.
	Replayed bool
}

// PurchaseService defines purchase use cases. Listing returns
// domain.ErrEmptyResult when nothing matches.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, caller Caller, in CreatePurchaseInput) (*CreatePurchaseResult, error)
	GetPurchaseByID(ctx context.Context, caller Caller, id uuid.UUID) (*domain.PurchaseDetail, error)
	ListPurchases(ctx context.Context, caller Caller, filter PurchaseFilter) ([]domain.Purchase, error)
	GetPurchasesByClient(ctx context.Context, caller Caller, clientID uuid.UUID) ([]domain.Purchase, error)
}
