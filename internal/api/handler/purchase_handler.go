package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/storefront/store-api/internal/api/metrics"
	"github.com/storefront/store-api/internal/core/ports"
)

// PurchaseHandler handles HTTP requests for purchases.
type PurchaseHandler struct {
	service ports.PurchaseService
}

func NewPurchaseHandler(service ports.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Create handles POST /api/v1/purchases.
//
// @Summary      Create a purchase
// @Description  Prices every product in order and stores the purchase with its total.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Replays the purchase created earlier with the same key"
// @Param        body             body      createPurchaseRequest  true   "Purchase"
// @Success      201              {object}  Envelope{data=purchaseResponse}
// @Success      200              {object}  Envelope{data=purchaseResponse}
// @Failure      400              {object}  Envelope
// @Failure      401              {object}  Envelope
// @Failure      403              {object}  Envelope
// @Failure      404              {object}  Envelope
// @Failure      409              {object}  Envelope  "Same Idempotency-Key still in progress"
// @Failure      500              {object}  Envelope
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c echo.Context) error {
	start := time.Now()

	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req createPurchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := toCreatePurchaseInput(req, c.Request().Header.Get("Idempotency-Key"))
	result, err := h.service.CreatePurchase(c.Request().Context(), caller, in)
	if err != nil {
		metrics.PurchaseFailuresTotal.WithLabelValues(metrics.FailureReason(err)).Inc()
		metrics.PurchaseDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return err
	}

	if result.Replayed {
		metrics.PurchaseReplaysTotal.Inc()
		metrics.PurchaseDuration.WithLabelValues("replayed").Observe(time.Since(start).Seconds())
		return respond(c, http.StatusOK, "Purchase already created", toPurchaseResponse(result.Purchase))
	}

	metrics.PurchasesCreatedTotal.Inc()
	metrics.PurchaseLineItems.Observe(float64(len(result.Purchase.Products)))
	metrics.PurchaseDuration.WithLabelValues("created").Observe(time.Since(start).Seconds())
	return respond(c, http.StatusCreated, "Purchase created", toPurchaseResponse(result.Purchase))
}

// Get handles GET /api/v1/purchases/:id.
//
// @Summary      Get a purchase
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase id (UUID)"
// @Success      200  {object}  Envelope{data=purchaseResponse}
// @Failure      400  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.service.GetPurchaseByID(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Purchase found", toPurchaseResponse(detail))
}

// List handles GET /api/v1/purchases.
//
// @Summary      List purchases
// @Description  Admins may filter by client_id; clients always see their own purchases.
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        client_id  query     string  false  "Client id (UUID)"
// @Success      200        {object}  Envelope{data=[]purchaseHeaderResponse}
// @Failure      400        {object}  Envelope
// @Failure      403        {object}  Envelope
// @Failure      404        {object}  Envelope
// @Router       /purchases [get]
func (h *PurchaseHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var filter ports.PurchaseFilter
	if raw := c.QueryParam("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid id format")
		}
		filter.ClientID = &clientID
	}

	purchases, err := h.service.ListPurchases(c.Request().Context(), caller, filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "All purchases", toPurchaseHeaderResponses(purchases))
}

// ListByClient handles GET /api/v1/clients/:id/purchases.
//
// @Summary      List a client's purchases
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id (UUID)"
// @Success      200  {object}  Envelope{data=[]purchaseHeaderResponse}
// @Failure      400  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /clients/{id}/purchases [get]
func (h *PurchaseHandler) ListByClient(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	clientID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	purchases, err := h.service.GetPurchasesByClient(c.Request().Context(), caller, clientID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Client purchases", toPurchaseHeaderResponses(purchases))
}
