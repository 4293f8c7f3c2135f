package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
)

// ProductFinder is the read-only product lookup used while pricing purchases.
// A missing product yields a *domain.ProductNotFoundError.
type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// ProductRepository defines catalog persistence.
type ProductRepository interface {
	ProductFinder
	Create(ctx context.Context, p *domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
