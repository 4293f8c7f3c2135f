package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
)

// --- Request types ---

// Only identifier syntax is validated here. Item count and quantities are
// checked by the service after the caller's identity.
type purchaseItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type createPurchaseRequest struct {
	ClientID string                `json:"clientId" validate:"required,uuid"`
	Products []purchaseItemRequest `json:"products" validate:"dive"`
}

// --- Response types ---

type purchaseHeaderResponse struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Status    string    `json:"status"`
	Total     string    `json:"total" example:"350.00"`
	CreatedAt time.Time `json:"created_at"`
}

type purchasedProductResponse struct {
	productResponse
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price" example:"100.00"`
	Subtotal  string `json:"subtotal" example:"200.00"`
}

type purchaseResponse struct {
	purchaseHeaderResponse
	Client   domain.ClientProfile       `json:"client"`
	Products []purchasedProductResponse `json:"products"`
}
