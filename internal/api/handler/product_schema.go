package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// productRequest is the body of product create and update. Price accepts a
// JSON number or string; range and precision are checked by the service.
type productRequest struct {
	LotNumber         int             `json:"lot_number"         validate:"required,gt=0"`
	Name              string          `json:"name"               validate:"required"`
	Price             decimal.Decimal `json:"price"              swaggertype:"string" example:"100.00"`
	AvailableQuantity *int            `json:"available_quantity" validate:"required,gte=0"`
	EntryDate         *time.Time      `json:"entry_date,omitempty"`
}

func (r productRequest) toInput() ports.ProductInput {
	in := ports.ProductInput{
		LotNumber: r.LotNumber,
		Name:      r.Name,
		Price:     r.Price,
	}
	if r.AvailableQuantity != nil {
		in.AvailableQuantity = *r.AvailableQuantity
	}
	if r.EntryDate != nil {
		in.EntryDate = r.EntryDate.UTC()
	}
	return in
}

// productResponse renders money with exactly two decimals.
type productResponse struct {
	ID                uuid.UUID `json:"id"`
	LotNumber         int       `json:"lot_number"`
	Name              string    `json:"name"`
	Price             string    `json:"price" example:"100.00"`
	AvailableQuantity int       `json:"available_quantity"`
	EntryDate         time.Time `json:"entry_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		LotNumber:         p.LotNumber,
		Name:              p.Name,
		Price:             money(p.Price),
		AvailableQuantity: p.AvailableQuantity,
		EntryDate:         p.EntryDate,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}
