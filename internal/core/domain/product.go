package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Purchases read it but never mutate it.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	LotNumber         int             `json:"lot_number"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"available_quantity"`
	EntryDate         time.Time       `json:"entry_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Validate checks the catalog invariants.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return InvalidRequest("product name is required")
	case p.LotNumber <= 0:
		return InvalidRequest("lot number must be positive")
	case !p.Price.IsPositive():
		return InvalidRequest("price must be positive")
	case !p.Price.Equal(p.Price.Round(MoneyPlaces)):
		return InvalidRequest("price must have at most two decimal places")
	case p.AvailableQuantity < 0:
		return InvalidRequest("available quantity cannot be negative")
	}
	return nil
}
