package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

type stubProductService struct {
	created ports.ProductInput
	updated ports.ProductInput
	deleted uuid.UUID
	product *domain.Product
	err     error
}

func (s *stubProductService) Create(_ context.Context, in ports.ProductInput) (*domain.Product, error) {
	s.created = in
	return s.product, s.err
}

func (s *stubProductService) Get(context.Context, uuid.UUID) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Product{*s.product}, nil
}

func (s *stubProductService) Update(_ context.Context, _ uuid.UUID, in ports.ProductInput) (*domain.Product, error) {
	s.updated = in
	return s.product, s.err
}

func (s *stubProductService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID: uuid.New(), LotNumber: 7, Name: "Lamp", Price: decimal.RequireFromString("19.9"),
		AvailableQuantity: 3, EntryDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestProductHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{product: sampleProduct()}
	c, rec := jsonContext(e, http.MethodPost, "/api/v1/products",
		`{"lot_number":7,"name":"Lamp","price":"19.90","available_quantity":0,"entry_date":"2024-06-01T00:00:00Z"}`)

	require.NoError(t, NewProductHandler(stub).Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, stub.created.Price.Equal(decimal.RequireFromString("19.90")))
	assert.Equal(t, 0, stub.created.AvailableQuantity)
	assert.Equal(t, 2024, stub.created.EntryDate.Year())

	_, data := decodeEnvelope(t, rec)
	assert.Equal(t, "19.90", data["price"])
}

func TestProductHandler_CreateAcceptsNumericPrice(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{product: sampleProduct()}
	c, _ := jsonContext(e, http.MethodPost, "/api/v1/products", `{"lot_number":1,"name":"Pen","price":2.5,"available_quantity":4}`)

	require.NoError(t, NewProductHandler(stub).Create(c))
	assert.Equal(t, "2.5", stub.created.Price.String())
	assert.True(t, stub.created.EntryDate.IsZero())
}

func TestProductHandler_CreateValidation(t *testing.T) {
	e := newTestEcho()
	c, _ := jsonContext(e, http.MethodPost, "/api/v1/products", `{"lot_number":0,"price":"1"}`)

	var ve *ValidationError
	require.ErrorAs(t, NewProductHandler(&stubProductService{}).Create(c), &ve)
	assert.ElementsMatch(t, []string{
		"lot_number is required",
		"name is required",
		"available_quantity is required",
	}, ve.Fields)
}

func TestProductHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	id := uuid.New()
	c, rec := jsonContext(e, http.MethodDelete, "/api/v1/products/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, NewProductHandler(stub).Delete(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, id, stub.deleted)
}

func TestProductHandler_GetPropagatesNotFound(t *testing.T) {
	e := newTestEcho()
	id := uuid.New()
	stub := &stubProductService{err: domain.ProductNotFound(id)}
	c, _ := jsonContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	assert.ErrorIs(t, NewProductHandler(stub).Get(c), domain.ErrProductNotFound)
}

func TestHealthHandler_Readiness(t *testing.T) {
	e := newTestEcho()
	h := NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    nil,
	})

	rec := httptest.NewRecorder()
	require.NoError(t, h.Readiness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"postgres":{"status":"ok"}}}`, rec.Body.String())

	h = NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	rec = httptest.NewRecorder()
	require.NoError(t, h.Readiness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
