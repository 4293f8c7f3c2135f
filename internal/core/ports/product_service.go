package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
)

// ProductInput is the writable part of a catalog entry.
type ProductInput struct {
	LotNumber         int
	Name              string
	Price             decimal.Decimal
	AvailableQuantity int
	EntryDate         time.Time
}

// ProductService defines catalog use cases.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
