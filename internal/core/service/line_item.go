package service

import (
	"context"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// LineItemValidator prices a single requested item against the catalog.
// It never reads or reserves available_quantity.
type LineItemValidator struct {
	products ports.ProductFinder
}

func NewLineItemValidator(products ports.ProductFinder) *LineItemValidator {
	return &LineItemValidator{products: products}
}

// Validate returns an unattached line item whose Subtotal is price * quantity.
func (v *LineItemValidator) Validate(ctx context.Context, in ports.PurchaseItemInput) (*domain.LineItem, error) {
	if in.Quantity <= 0 {
		return nil, domain.InvalidRequest("quantity must be a positive integer")
	}
	product, err := v.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	return domain.NewLineItem(product, in.Quantity)
}
