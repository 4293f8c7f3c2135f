package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseState is a step of the purchase creation workflow.
// Only Draft and Persisted are ever stored on a header.
type PurchaseState string

const (
	StateRequested PurchaseState = "requested"
	StateDraft     PurchaseState = "draft"
	StatePriced    PurchaseState = "priced"
	StatePersisted PurchaseState = "persisted"
	StateFailed    PurchaseState = "failed"
)

var validTransitions = map[PurchaseState][]PurchaseState{
	StateRequested: {StateDraft, StateFailed},
	StateDraft:     {StatePriced, StateFailed},
	StatePriced:    {StatePersisted, StateFailed},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s PurchaseState) CanTransitionTo(next PurchaseState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s PurchaseState) IsTerminal() bool {
	return s == StatePersisted || s == StateFailed
}

// MoneyPlaces is the number of decimal places money is stored and rendered with.
const MoneyPlaces = 2

// MaxQuantity is the largest quantity a single line can carry.
const MaxQuantity = math.MaxInt32

// MaxMoney is the largest amount a subtotal or total can hold (NUMERIC(12,2)).
var MaxMoney = decimal.RequireFromString("9999999999.99")

// Purchase is the order header.
type Purchase struct {
	ID        uuid.UUID       `json:"id"`
	ClientID  uuid.UUID       `json:"client_id"`
	Status    PurchaseState   `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewDraftPurchase returns a header for clientID with a zero total.
func NewDraftPurchase(clientID uuid.UUID, now time.Time) *Purchase {
	return &Purchase{
		ID:        uuid.New(),
		ClientID:  clientID,
		Status:    StateDraft,
		Total:     decimal.Zero,
		CreatedAt: now.UTC(),
	}
}

// LineItem associates one product and a quantity with a purchase.
// UnitPrice is the product price at validation time.
type LineItem struct {
	ID         uuid.UUID       `json:"id"`
	PurchaseID uuid.UUID       `json:"purchase_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// NewLineItem prices quantity units of product. The purchase reference is left
// unset until the item is attached to a header.
func NewLineItem(product *Product, quantity int) (*LineItem, error) {
	if quantity <= 0 {
		return nil, InvalidRequest("quantity must be a positive integer")
	}
	if quantity > MaxQuantity {
		return nil, InvalidRequest(fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
	}
	subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(MoneyPlaces)
	if subtotal.GreaterThan(MaxMoney) {
		return nil, InvalidRequest(fmt.Sprintf("subtotal for product %s exceeds %s", product.ID, MaxMoney.StringFixed(MoneyPlaces)))
	}
	return &LineItem{
		ID:        uuid.New(),
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Subtotal:  subtotal,
	}, nil
}

// PurchasedProduct is a product as seen through one line of a purchase.
type PurchasedProduct struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PurchaseDetail is a hydrated purchase: header, client projection and products.
type PurchaseDetail struct {
	Purchase
	Client   ClientProfile      `json:"client"`
	Products []PurchasedProduct `json:"products"`
}

// PurchaseCreatedEvent is emitted once a purchase reaches the persisted state.
type PurchaseCreatedEvent struct {
	PurchaseID uuid.UUID           `json:"purchase_id"`
	ClientID   uuid.UUID           `json:"client_id"`
	Total      decimal.Decimal     `json:"total"`
	Items      []PurchaseEventItem `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

type PurchaseEventItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// MarshalJSON renders money with exactly MoneyPlaces decimals.
func (e PurchaseCreatedEvent) MarshalJSON() ([]byte, error) {
	type plain PurchaseCreatedEvent
	return json.Marshal(struct {
		plain
		Total string `json:"total"`
	}{plain(e), e.Total.StringFixed(MoneyPlaces)})
}

func (i PurchaseEventItem) MarshalJSON() ([]byte, error) {
	type plain PurchaseEventItem
	return json.Marshal(struct {
		plain
		Subtotal string `json:"subtotal"`
	}{plain(i), i.Subtotal.StringFixed(MoneyPlaces)})
}

// NewPurchaseCreatedEvent builds the event for a persisted purchase.
func NewPurchaseCreatedEvent(p *Purchase, items []*LineItem) PurchaseCreatedEvent {
	evt := PurchaseCreatedEvent{
		PurchaseID: p.ID,
		ClientID:   p.ClientID,
		Total:      p.Total,
		Items:      make([]PurchaseEventItem, len(items)),
		CreatedAt:  p.CreatedAt,
	}
	for i, it := range items {
		evt.Items[i] = PurchaseEventItem{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal}
	}
	return evt
}
