package handler

import (
	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// --- Request → Service input ---

// toCreatePurchaseInput expects a validated request, so ids parse.
func toCreatePurchaseInput(req createPurchaseRequest, idempotencyKey string) ports.CreatePurchaseInput {
	items := make([]ports.PurchaseItemInput, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, ports.PurchaseItemInput{
			ProductID: uuid.MustParse(p.ProductID),
			Quantity:  p.Quantity,
		})
	}
	return ports.CreatePurchaseInput{
		ClientID:       uuid.MustParse(req.ClientID),
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

// --- Service result → HTTP response ---

func toPurchaseHeaderResponse(p *domain.Purchase) purchaseHeaderResponse {
	return purchaseHeaderResponse{
		ID:        p.ID,
		ClientID:  p.ClientID,
		Status:    string(p.Status),
		Total:     money(p.Total),
		CreatedAt: p.CreatedAt,
	}
}

func toPurchaseHeaderResponses(purchases []domain.Purchase) []purchaseHeaderResponse {
	out := make([]purchaseHeaderResponse, 0, len(purchases))
	for i := range purchases {
		out = append(out, toPurchaseHeaderResponse(&purchases[i]))
	}
	return out
}

func toPurchaseResponse(d *domain.PurchaseDetail) purchaseResponse {
	products := make([]purchasedProductResponse, 0, len(d.Products))
	for i := range d.Products {
		pp := &d.Products[i]
		products = append(products, purchasedProductResponse{
			productResponse: toProductResponse(&pp.Product),
			Quantity:        pp.Quantity,
			UnitPrice:       money(pp.UnitPrice),
			Subtotal:        money(pp.Subtotal),
		})
	}
	return purchaseResponse{
		purchaseHeaderResponse: toPurchaseHeaderResponse(&d.Purchase),
		Client:                 d.Client,
		Products:               products,
	}
}
