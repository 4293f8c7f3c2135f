package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storefront/store-api/internal/core/domain"
)

// IDs are stored as their canonical string form and money as Decimal128.

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

type productDoc struct {
	ID                string               `bson:"_id"`
	LotNumber         int                  `bson:"lot_number"`
	Name              string               `bson:"name"`
	Price             primitive.Decimal128 `bson:"price"`
	AvailableQuantity int                  `bson:"available_quantity"`
	EntryDate         time.Time            `bson:"entry_date"`
	CreatedAt         time.Time            `bson:"created_at"`
	UpdatedAt         time.Time            `bson:"updated_at"`
}

func toProductDoc(p *domain.Product) (productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDoc{}, err
	}
	return productDoc{
		ID:                p.ID.String(),
		LotNumber:         p.LotNumber,
		Name:              p.Name,
		Price:             price,
		AvailableQuantity: p.AvailableQuantity,
		EntryDate:         p.EntryDate,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}, nil
}

func (d productDoc) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("product id %q: %w", d.ID, err)
	}
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:                id,
		LotNumber:         d.LotNumber,
		Name:              d.Name,
		Price:             price,
		AvailableQuantity: d.AvailableQuantity,
		EntryDate:         d.EntryDate.UTC(),
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}, nil
}

// purchaseDoc embeds its line items; $push keeps them in insertion order.
type purchaseDoc struct {
	ID        string               `bson:"_id"`
	ClientID  string               `bson:"client_id"`
	Status    string               `bson:"status"`
	Total     primitive.Decimal128 `bson:"total"`
	CreatedAt time.Time            `bson:"created_at"`
	Items     []lineItemDoc        `bson:"items"`
}

type lineItemDoc struct {
	ID        string               `bson:"_id"`
	ProductID string               `bson:"product_id"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
}

func toPurchaseDoc(p *domain.Purchase) (purchaseDoc, error) {
	total, err := toDecimal128(p.Total)
	if err != nil {
		return purchaseDoc{}, err
	}
	return purchaseDoc{
		ID:        p.ID.String(),
		ClientID:  p.ClientID.String(),
		Status:    string(p.Status),
		Total:     total,
		CreatedAt: p.CreatedAt,
		Items:     []lineItemDoc{},
	}, nil
}

func (d purchaseDoc) toDomain() (*domain.Purchase, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("purchase id %q: %w", d.ID, err)
	}
	clientID, err := uuid.Parse(d.ClientID)
	if err != nil {
		return nil, fmt.Errorf("purchase client id %q: %w", d.ClientID, err)
	}
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	return &domain.Purchase{
		ID:        id,
		ClientID:  clientID,
		Status:    domain.PurchaseState(d.Status),
		Total:     total,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

func toLineItemDoc(item *domain.LineItem) (lineItemDoc, error) {
	unit, err := toDecimal128(item.UnitPrice)
	if err != nil {
		return lineItemDoc{}, err
	}
	subtotal, err := toDecimal128(item.Subtotal)
	if err != nil {
		return lineItemDoc{}, err
	}
	return lineItemDoc{
		ID:        item.ID.String(),
		ProductID: item.ProductID.String(),
		Quantity:  item.Quantity,
		UnitPrice: unit,
		Subtotal:  subtotal,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decimal128 %s: %w", v, err)
	}
	return d, nil
}
