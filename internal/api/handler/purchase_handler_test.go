package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/store-api/internal/api/middleware"
	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

type stubPurchaseService struct {
	createFn func(ctx context.Context, caller ports.Caller, in ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error)
	getFn    func(ctx context.Context, caller ports.Caller, id uuid.UUID) (*domain.PurchaseDetail, error)
	listFn   func(ctx context.Context, caller ports.Caller, filter ports.PurchaseFilter) ([]domain.Purchase, error)
}

func (s *stubPurchaseService) CreatePurchase(ctx context.Context, caller ports.Caller, in ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubPurchaseService) GetPurchaseByID(ctx context.Context, caller ports.Caller, id uuid.UUID) (*domain.PurchaseDetail, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubPurchaseService) ListPurchases(ctx context.Context, caller ports.Caller, filter ports.PurchaseFilter) ([]domain.Purchase, error) {
	return s.listFn(ctx, caller, filter)
}

func (s *stubPurchaseService) GetPurchasesByClient(ctx context.Context, caller ports.Caller, clientID uuid.UUID) ([]domain.Purchase, error) {
	return s.listFn(ctx, caller, ports.PurchaseFilter{ClientID: &clientID})
}

func authenticate(c echo.Context, userID uuid.UUID, role string) {
	c.Set(middleware.ContextUserID, userID.String())
	c.Set(middleware.ContextRole, role)
}

func sampleDetail(clientID uuid.UUID) *domain.PurchaseDetail {
	keyboard := domain.Product{ID: uuid.New(), LotNumber: 1, Name: "Keyboard", Price: decimal.RequireFromString("100"), AvailableQuantity: 5}
	mouse := domain.Product{ID: uuid.New(), LotNumber: 2, Name: "Mouse", Price: decimal.RequireFromString("50"), AvailableQuantity: 5}
	return &domain.PurchaseDetail{
		Purchase: domain.Purchase{
			ID: uuid.New(), ClientID: clientID, Status: domain.StatePersisted,
			Total: decimal.RequireFromString("350"), CreatedAt: time.Now().UTC(),
		},
		Client: domain.ClientProfile{ID: clientID, Name: "Ana", Email: "ana@example.com"},
		Products: []domain.PurchasedProduct{
			{Product: keyboard, Quantity: 2, UnitPrice: keyboard.Price, Subtotal: decimal.RequireFromString("200")},
			{Product: mouse, Quantity: 3, UnitPrice: mouse.Price, Subtotal: decimal.RequireFromString("150")},
		},
	}
}

func TestPurchaseHandler_Create(t *testing.T) {
	e := newTestEcho()
	clientID := uuid.New()
	productID := uuid.New()

	var got ports.CreatePurchaseInput
	stub := &stubPurchaseService{
		createFn: func(_ context.Context, caller ports.Caller, in ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error) {
			assert.Equal(t, clientID, caller.UserID)
			got = in
			return &ports.CreatePurchaseResult{Purchase: sampleDetail(clientID)}, nil
		},
	}

	c, rec := jsonContext(e, http.MethodPost, "/api/v1/purchases",
		`{"clientId":"`+clientID.String()+`","products":[{"productId":"`+productID.String()+`","quantity":2}]}`)
	c.Request().Header.Set("Idempotency-Key", "order-1")
	authenticate(c, clientID, domain.RoleClient)

	require.NoError(t, NewPurchaseHandler(stub).Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "order-1", got.IdempotencyKey)
	require.Len(t, got.Items, 1)
	assert.Equal(t, productID, got.Items[0].ProductID)

	env, data := decodeEnvelope(t, rec)
	assert.True(t, env.Status)
	assert.Equal(t, "350.00", data["total"])
	client := data["client"].(map[string]any)
	assert.Equal(t, "ana@example.com", client["email"])
	assert.NotContains(t, client, "password_hash")

	products := data["products"].([]any)
	require.Len(t, products, 2)
	first := products[0].(map[string]any)
	assert.Equal(t, "Keyboard", first["name"])
	assert.Equal(t, float64(2), first["quantity"])
	assert.Equal(t, "200.00", first["subtotal"])
	assert.Equal(t, "100.00", first["price"])
}

func TestPurchaseHandler_CreateReplay(t *testing.T) {
	e := newTestEcho()
	clientID := uuid.New()
	stub := &stubPurchaseService{
		createFn: func(context.Context, ports.Caller, ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error) {
			return &ports.CreatePurchaseResult{Purchase: sampleDetail(clientID), Replayed: true}, nil
		},
	}
	c, rec := jsonContext(e, http.MethodPost, "/api/v1/purchases",
		`{"clientId":"`+clientID.String()+`","products":[{"productId":"`+uuid.NewString()+`","quantity":1}]}`)
	authenticate(c, clientID, domain.RoleClient)

	require.NoError(t, NewPurchaseHandler(stub).Create(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPurchaseHandler_CreateLeavesQuantityChecksToService(t *testing.T) {
	e := newTestEcho()
	clientID := uuid.New()
	called := false
	stub := &stubPurchaseService{
		createFn: func(_ context.Context, _ ports.Caller, in ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error) {
			called = true
			assert.Empty(t, in.Items)
			return nil, domain.InvalidRequest("at least one product is required")
		},
	}
	c, _ := jsonContext(e, http.MethodPost, "/api/v1/purchases", `{"clientId":"`+clientID.String()+`","products":[]}`)
	authenticate(c, clientID, domain.RoleClient)

	err := NewPurchaseHandler(stub).Create(c)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.True(t, called)
}

func TestPurchaseHandler_CreateRejectsMalformedIDs(t *testing.T) {
	e := newTestEcho()
	stub := &stubPurchaseService{}
	c, _ := jsonContext(e, http.MethodPost, "/api/v1/purchases", `{"clientId":"abc","products":[{"productId":"xyz","quantity":1}]}`)
	authenticate(c, uuid.New(), domain.RoleClient)

	var ve *ValidationError
	require.ErrorAs(t, NewPurchaseHandler(stub).Create(c), &ve)
	assert.ElementsMatch(t, []string{"clientId must be a valid UUID", "products[0].productId must be a valid UUID"}, ve.Fields)
}

func TestPurchaseHandler_RequiresClaims(t *testing.T) {
	e := newTestEcho()
	c, _ := jsonContext(e, http.MethodPost, "/api/v1/purchases", `{}`)
	assertHTTPError(t, NewPurchaseHandler(&stubPurchaseService{}).Create(c), http.StatusUnauthorized)

	c, _ = jsonContext(e, http.MethodPost, "/api/v1/purchases", `{}`)
	c.Set(middleware.ContextRole, domain.RoleClient)
	c.Set(middleware.ContextUserID, "not-a-uuid")
	assertHTTPError(t, NewPurchaseHandler(&stubPurchaseService{}).Create(c), http.StatusUnauthorized)
}

func TestPurchaseHandler_GetInvalidID(t *testing.T) {
	e := newTestEcho()
	c, _ := jsonContext(e, http.MethodGet, "/api/v1/purchases/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	authenticate(c, uuid.New(), domain.RoleAdmin)

	err := NewPurchaseHandler(&stubPurchaseService{}).Get(c)
	assertHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Invalid id format", err.(*echo.HTTPError).Message)
}

func TestPurchaseHandler_List(t *testing.T) {
	e := newTestEcho()
	clientID := uuid.New()
	stub := &stubPurchaseService{
		listFn: func(_ context.Context, _ ports.Caller, filter ports.PurchaseFilter) ([]domain.Purchase, error) {
			require.NotNil(t, filter.ClientID)
			assert.Equal(t, clientID, *filter.ClientID)
			return []domain.Purchase{{ID: uuid.New(), ClientID: clientID, Status: domain.StatePersisted, Total: decimal.RequireFromString("12.5")}}, nil
		},
	}
	c, rec := jsonContext(e, http.MethodGet, "/api/v1/purchases?client_id="+clientID.String(), "")
	authenticate(c, uuid.New(), domain.RoleAdmin)

	require.NoError(t, NewPurchaseHandler(stub).List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"12.50"`)

	c, _ = jsonContext(e, http.MethodGet, "/api/v1/purchases?client_id=bogus", "")
	authenticate(c, uuid.New(), domain.RoleAdmin)
	assertHTTPError(t, NewPurchaseHandler(stub).List(c), http.StatusBadRequest)
}
