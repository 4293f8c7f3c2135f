package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

func TestLineItemValidator_PricesItem(t *testing.T) {
	p := &domain.Product{ID: uuid.New(), Name: "Tea", Price: decimal.RequireFromString("19.99"), AvailableQuantity: 1}
	v := NewLineItemValidator(newStubProductRepo(p))

	item, err := v.Validate(context.Background(), ports.PurchaseItemInput{ProductID: p.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Subtotal.StringFixed(2) != "59.97" {
		t.Fatalf("expected 59.97, got %s", item.Subtotal.StringFixed(2))
	}
	if item.PurchaseID != uuid.Nil {
		t.Fatalf("purchase reference must be pending")
	}
}

func TestLineItemValidator_QuantityAboveStockIsAccepted(t *testing.T) {
	p := &domain.Product{ID: uuid.New(), Name: "Tea", Price: decimal.NewFromInt(1), AvailableQuantity: 1}
	v := NewLineItemValidator(newStubProductRepo(p))

	if _, err := v.Validate(context.Background(), ports.PurchaseItemInput{ProductID: p.ID, Quantity: 50}); err != nil {
		t.Fatalf("stock is not checked, got %v", err)
	}
}

func TestLineItemValidator_MissingProduct(t *testing.T) {
	v := NewLineItemValidator(newStubProductRepo())
	id := uuid.New()

	_, err := v.Validate(context.Background(), ports.PurchaseItemInput{ProductID: id, Quantity: 1})
	var pnf *domain.ProductNotFoundError
	if !errors.As(err, &pnf) || pnf.ProductID != id {
		t.Fatalf("expected ProductNotFoundError for %s, got %v", id, err)
	}
}

func TestClientChecker(t *testing.T) {
	client := &domain.User{ID: uuid.New(), Role: domain.RoleClient}
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	repo := newStubUserRepo(client, admin)
	checker := NewClientChecker(repo)

	if _, err := checker.Check(context.Background(), ports.Caller{UserID: client.ID, Role: domain.RoleClient}, client.ID); err != nil {
		t.Fatalf("expected eligible client, got %v", err)
	}
	if _, err := checker.Check(context.Background(), ports.Caller{UserID: client.ID, Role: domain.RoleClient}, admin.ID); !errors.Is(err, domain.ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
	if _, err := checker.Check(context.Background(), ports.Caller{UserID: admin.ID, Role: domain.RoleClient}, admin.ID); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for stored admin, got %v", err)
	}

	repo.findErr = domain.Persistence("find user", errStoreDown)
	if _, err := checker.Check(context.Background(), ports.Caller{UserID: client.ID, Role: domain.RoleClient}, client.ID); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
