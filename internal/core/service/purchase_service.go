package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// PurchaseService creates, hydrates and lists purchases.
type PurchaseService struct {
	users     ports.UserRepository
	purchases ports.PurchaseRepository
	tx        ports.PurchaseTxRunner
	checker   *ClientChecker
	idem      ports.IdempotencyStore
	events    ports.PurchaseEventQueue
	now       func() time.Time
	logger    zerolog.Logger
}

type PurchaseOption func(*PurchaseService)

// WithIdempotency enables Idempotency-Key replay.
func WithIdempotency(store ports.IdempotencyStore) PurchaseOption {
	return func(s *PurchaseService) { s.idem = store }
}

// WithEventQueue publishes a PurchaseCreatedEvent for every new purchase.
func WithEventQueue(q ports.PurchaseEventQueue) PurchaseOption {
	return func(s *PurchaseService) { s.events = q }
}

func WithClock(now func() time.Time) PurchaseOption {
	return func(s *PurchaseService) { s.now = now }
}

// NewPurchaseService wires the service. store serves reads outside of a
// purchase write; tx decides whether a write is all-or-nothing.
func NewPurchaseService(store ports.PurchaseStore, tx ports.PurchaseTxRunner, logger zerolog.Logger, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		users:     store.Users,
		purchases: store.Purchases,
		tx:        tx,
		checker:   NewClientChecker(store.Users),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePurchase runs the purchase workflow and returns the hydrated result.
// Line items are priced and written in submission order; the first failure
// stops the workflow. Whether earlier writes survive a failure depends on
// the configured PurchaseTxRunner.
func (s *PurchaseService) CreatePurchase(ctx context.Context, caller ports.Caller, in ports.CreatePurchaseInput) (*ports.CreatePurchaseResult, error) {
	flow := newPurchaseFlow(s.logger.With().Str("client_id", in.ClientID.String()).Logger())

	if _, err := s.checker.Check(ctx, caller, in.ClientID); err != nil {
		return nil, flow.fail(err)
	}
	if err := validatePurchaseInput(in); err != nil {
		return nil, flow.fail(err)
	}

	owned, replay, err := s.claim(ctx, in)
	if err != nil {
		return nil, flow.fail(err)
	}
	if replay != nil {
		return replay, nil
	}

	var (
		header *domain.Purchase
		items  []*domain.LineItem
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store ports.PurchaseStore) error {
		flow.restart()
		header = domain.NewDraftPurchase(in.ClientID, s.now())
		items = make([]*domain.LineItem, 0, len(in.Items))

		if err := store.Purchases.CreateHeader(ctx, header); err != nil {
			return err
		}
		if err := flow.advance(domain.StateDraft); err != nil {
			return err
		}

		validator := NewLineItemValidator(store.Products)
		total := decimal.Zero
		for _, req := range in.Items {
			item, err := validator.Validate(ctx, req)
			if err != nil {
				return err
			}
			next := total.Add(item.Subtotal)
			if next.GreaterThan(domain.MaxMoney) {
				return domain.InvalidRequest("purchase total exceeds " + domain.MaxMoney.StringFixed(domain.MoneyPlaces))
			}
			item.PurchaseID = header.ID
			if err := store.Purchases.AddLineItem(ctx, item); err != nil {
				return err
			}
			total = next
			items = append(items, item)
		}
		if err := flow.advance(domain.StatePriced); err != nil {
			return err
		}

		if err := store.Purchases.Finalize(ctx, header.ID, total); err != nil {
			return err
		}
		header.Total = total
		header.Status = domain.StatePersisted
		return nil
	})
	if err != nil {
		if owned {
			s.release(ctx, in)
		}
		if flow.state != domain.StateRequested && !s.tx.Atomic() {
			s.logger.Warn().
				Str("purchase_id", header.ID.String()).
				Int("items_written", len(items)).
				Msg("purchase left in draft after failure")
		}
		return nil, flow.fail(err)
	}
	if err := flow.advance(domain.StatePersisted); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("purchase_id", header.ID.String()).
		Str("client_id", header.ClientID.String()).
		Str("total", header.Total.StringFixed(domain.MoneyPlaces)).
		Int("items", len(items)).
		Msg("purchase created")

	if owned {
		s.complete(ctx, in, header.ID)
	}
	if s.events != nil {
		s.events.Enqueue(domain.NewPurchaseCreatedEvent(header, items))
	}

	detail, err := s.hydrate(ctx, header)
	if err != nil {
		return nil, err
	}
	return &ports.CreatePurchaseResult{Purchase: detail}, nil
}

// GetPurchaseByID hydrates a purchase. Clients only see their own purchases;
// anyone else's reads as not found.
func (s *PurchaseService) GetPurchaseByID(ctx context.Context, caller ports.Caller, id uuid.UUID) (*domain.PurchaseDetail, error) {
	header, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && header.ClientID != caller.UserID {
		return nil, domain.ErrPurchaseNotFound
	}
	return s.hydrate(ctx, header)
}

// ListPurchases returns headers only. A client is always scoped to itself.
func (s *PurchaseService) ListPurchases(ctx context.Context, caller ports.Caller, filter ports.PurchaseFilter) ([]domain.Purchase, error) {
	if !caller.IsAdmin() {
		if filter.ClientID != nil && *filter.ClientID != caller.UserID {
			return nil, domain.ErrIdentityMismatch
		}
		self := caller.UserID
		filter.ClientID = &self
	}

	purchases, err := s.purchases.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return purchases, nil
}

func (s *PurchaseService) GetPurchasesByClient(ctx context.Context, caller ports.Caller, clientID uuid.UUID) ([]domain.Purchase, error) {
	return s.ListPurchases(ctx, caller, ports.PurchaseFilter{ClientID: &clientID})
}

func (s *PurchaseService) hydrate(ctx context.Context, header *domain.Purchase) (*domain.PurchaseDetail, error) {
	client, err := s.users.Find(ctx, domain.ByID(header.ClientID))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Persistence("hydrate purchase", fmt.Errorf("client %s missing for purchase %s", header.ClientID, header.ID))
		}
		return nil, err
	}
	products, err := s.purchases.ListProducts(ctx, header.ID)
	if err != nil {
		return nil, err
	}
	return &domain.PurchaseDetail{
		Purchase: *header,
		Client:   client.Profile(),
		Products: products,
	}, nil
}

// claim reserves the request's Idempotency-Key. owned reports that this
// request holds the key and must complete or release it. A finished key
// yields the earlier purchase as a replay; a key held by another request
// yields ErrPurchaseInFlight. Store failures fall through to a normal create.
func (s *PurchaseService) claim(ctx context.Context, in ports.CreatePurchaseInput) (owned bool, replay *ports.CreatePurchaseResult, err error) {
	if s.idem == nil || in.IdempotencyKey == "" {
		return false, nil, nil
	}
	log := s.logger.With().Str("idempotency_key", in.IdempotencyKey).Logger()

	state, id, err := s.idem.Claim(ctx, in.ClientID, in.IdempotencyKey)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency claim failed, creating anyway")
		return false, nil, nil
	}
	switch state {
	case ports.IdempotencyClaimed:
		return true, nil, nil
	case ports.IdempotencyPending:
		return false, nil, domain.ErrPurchaseInFlight
	}

	header, err := s.purchases.FindByID(ctx, id)
	if err == nil {
		var detail *domain.PurchaseDetail
		if detail, err = s.hydrate(ctx, header); err == nil {
			log.Info().Str("purchase_id", id.String()).Msg("idempotent replay")
			return false, &ports.CreatePurchaseResult{Purchase: detail, Replayed: true}, nil
		}
	}
	// The key outlived its purchase; create again and point the key at the new one.
	log.Warn().Err(err).Str("purchase_id", id.String()).Msg("idempotency key points at unreadable purchase")
	return true, nil, nil
}

// complete and release run detached from ctx so an expiring request cannot
// leave its key pending.
func (s *PurchaseService) complete(ctx context.Context, in ports.CreatePurchaseInput, id uuid.UUID) {
	if err := s.idem.Complete(context.WithoutCancel(ctx), in.ClientID, in.IdempotencyKey, id); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
	}
}

func (s *PurchaseService) release(ctx context.Context, in ports.CreatePurchaseInput) {
	if err := s.idem.Release(context.WithoutCancel(ctx), in.ClientID, in.IdempotencyKey); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
	}
}

func validatePurchaseInput(in ports.CreatePurchaseInput) error {
	if in.ClientID == uuid.Nil {
		return domain.InvalidRequest("client id is required")
	}
	if len(in.Items) == 0 {
		return domain.InvalidRequest("at least one product is required")
	}
	for i, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return domain.InvalidRequest(fmt.Sprintf("products[%d]: product id is required", i))
		}
		if it.Quantity <= 0 {
			return domain.InvalidRequest(fmt.Sprintf("products[%d]: quantity must be a positive integer", i))
		}
		if it.Quantity > domain.MaxQuantity {
			return domain.InvalidRequest(fmt.Sprintf("products[%d]: quantity must not exceed %d", i, domain.MaxQuantity))
		}
	}
	return nil
}

// purchaseFlow tracks one request through the purchase state machine.
type purchaseFlow struct {
	state  domain.PurchaseState
	logger zerolog.Logger
}

func newPurchaseFlow(logger zerolog.Logger) *purchaseFlow {
	return &purchaseFlow{state: domain.StateRequested, logger: logger}
}

func (f *purchaseFlow) advance(next domain.PurchaseState) error {
	if !f.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, f.state, next)
	}
	f.logger.Debug().Str("from", string(f.state)).Str("to", string(next)).Msg("purchase state")
	f.state = next
	return nil
}

// restart rewinds the flow for a retried transaction attempt.
func (f *purchaseFlow) restart() {
	f.state = domain.StateRequested
}

// fail moves the flow to failed and hands err back.
func (f *purchaseFlow) fail(err error) error {
	f.logger.Debug().Err(err).Str("from", string(f.state)).Msg("purchase failed")
	f.state = domain.StateFailed
	return err
}
