package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID    map[uuid.UUID]*domain.User
	findErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) Find(_ context.Context, lookup domain.UserLookup) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if id, ok := lookup.ID(); ok {
		if u, found := r.byID[id]; found {
			clone := *u
			return &clone, nil
		}
		return nil, domain.ErrUserNotFound
	}
	if email, ok := lookup.Email(); ok {
		for _, u := range r.byID {
			if u.Email == email {
				clone := *u
				return &clone, nil
			}
		}
	}
	return nil, domain.ErrUserNotFound
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	byID      map[uuid.UUID]*domain.Product
	order     []uuid.UUID
	lookups   []uuid.UUID
	deleteErr error
}

func newStubProductRepo(products ...*domain.Product) *stubProductRepo {
	r := &stubProductRepo{byID: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.lookups = append(r.lookups, id)
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ProductNotFound(id)
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	clone := *p
	r.byID[p.ID] = &clone
	r.order = append(r.order, p.ID)
	return nil
}

func (r *stubProductRepo) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ProductNotFound(p.ID)
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ProductNotFound(id)
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Purchases
// ---------------------------------------------------------------------------

type stubPurchaseRepo struct {
	products *stubProductRepo

	headers map[uuid.UUID]*domain.Purchase
	order   []uuid.UUID
	items   []*domain.LineItem

	createErr   error
	addItemErr  error
	finalizeErr error
}

func newStubPurchaseRepo(products *stubProductRepo) *stubPurchaseRepo {
	return &stubPurchaseRepo{products: products, headers: make(map[uuid.UUID]*domain.Purchase)}
}

func (r *stubPurchaseRepo) CreateHeader(_ context.Context, p *domain.Purchase) error {
	if r.createErr != nil {
		return domain.Persistence("insert purchase", r.createErr)
	}
	clone := *p
	r.headers[p.ID] = &clone
	r.order = append(r.order, p.ID)
	return nil
}

func (r *stubPurchaseRepo) AddLineItem(_ context.Context, item *domain.LineItem) error {
	if r.addItemErr != nil {
		return domain.Persistence("insert purchase item", r.addItemErr)
	}
	clone := *item
	r.items = append(r.items, &clone)
	return nil
}

func (r *stubPurchaseRepo) Finalize(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	if r.finalizeErr != nil {
		return domain.Persistence("finalize purchase", r.finalizeErr)
	}
	h, ok := r.headers[id]
	if !ok {
		return domain.Persistence("finalize purchase", errors.New("no row"))
	}
	h.Total = total
	h.Status = domain.StatePersisted
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Purchase, error) {
	h, ok := r.headers[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	clone := *h
	return &clone, nil
}

func (r *stubPurchaseRepo) ListProducts(_ context.Context, purchaseID uuid.UUID) ([]domain.PurchasedProduct, error) {
	var out []domain.PurchasedProduct
	for _, it := range r.itemsOf(purchaseID) {
		p := r.products.byID[it.ProductID]
		out = append(out, domain.PurchasedProduct{
			Product:   *p,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, f ports.PurchaseFilter) ([]domain.Purchase, error) {
	var out []domain.Purchase
	for _, id := range r.order {
		h, ok := r.headers[id]
		if !ok {
			continue
		}
		if f.ClientID != nil && h.ClientID != *f.ClientID {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}

func (r *stubPurchaseRepo) itemsOf(purchaseID uuid.UUID) []*domain.LineItem {
	var out []*domain.LineItem
	for _, it := range r.items {
		if it.PurchaseID == purchaseID {
			out = append(out, it)
		}
	}
	return out
}

// vanishingHeaderRepo loses every header right after it is written.
type vanishingHeaderRepo struct {
	*stubPurchaseRepo
}

func (r *vanishingHeaderRepo) CreateHeader(ctx context.Context, p *domain.Purchase) error {
	if err := r.stubPurchaseRepo.CreateHeader(ctx, p); err != nil {
		return err
	}
	delete(r.headers, p.ID)
	return nil
}

type purchaseSnapshot struct {
	headers map[uuid.UUID]domain.Purchase
	order   []uuid.UUID
	items   []*domain.LineItem
}

func (r *stubPurchaseRepo) snapshot() purchaseSnapshot {
	s := purchaseSnapshot{
		headers: make(map[uuid.UUID]domain.Purchase, len(r.headers)),
		order:   append([]uuid.UUID(nil), r.order...),
		items:   append([]*domain.LineItem(nil), r.items...),
	}
	for id, h := range r.headers {
		s.headers[id] = *h
	}
	return s
}

func (r *stubPurchaseRepo) restore(s purchaseSnapshot) {
	r.headers = make(map[uuid.UUID]*domain.Purchase, len(s.headers))
	for id, h := range s.headers {
		h := h
		r.headers[id] = &h
	}
	r.order = s.order
	r.items = s.items
}

// ---------------------------------------------------------------------------
// Tx runner: atomic restores a snapshot on failure, legacy keeps every write.
// ---------------------------------------------------------------------------

type stubTxRunner struct {
	store  ports.PurchaseStore
	repo   *stubPurchaseRepo
	atomic bool
	calls  int
	// during runs once, at the start of the next WithinTx, to interleave
	// another request with an in-flight write.
	during func()
}

func (r *stubTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.PurchaseStore) error) error {
	r.calls++
	if hook := r.during; hook != nil {
		r.during = nil
		hook()
	}
	if !r.atomic {
		return fn(ctx, r.store)
	}
	snap := r.repo.snapshot()
	if err := fn(ctx, r.store); err != nil {
		r.repo.restore(snap)
		return err
	}
	return nil
}

func (r *stubTxRunner) Atomic() bool { return r.atomic }

// ---------------------------------------------------------------------------
// Idempotency + events
// ---------------------------------------------------------------------------

const stubPending = "pending"

type stubIdempotency struct {
	keys     map[string]string
	claimErr error
	claims   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Claim(_ context.Context, clientID uuid.UUID, key string) (ports.IdempotencyState, uuid.UUID, error) {
	s.claims++
	if s.claimErr != nil {
		return 0, uuid.Nil, s.claimErr
	}
	k := clientID.String() + ":" + key
	val, ok := s.keys[k]
	if !ok {
		s.keys[k] = stubPending
		return ports.IdempotencyClaimed, uuid.Nil, nil
	}
	if val == stubPending {
		return ports.IdempotencyPending, uuid.Nil, nil
	}
	return ports.IdempotencyDone, uuid.MustParse(val), nil
}

func (s *stubIdempotency) Complete(_ context.Context, clientID uuid.UUID, key string, purchaseID uuid.UUID) error {
	s.keys[clientID.String()+":"+key] = purchaseID.String()
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, clientID uuid.UUID, key string) error {
	delete(s.keys, clientID.String()+":"+key)
	return nil
}

type stubEventQueue struct {
	mu     sync.Mutex
	events []domain.PurchaseCreatedEvent
}

func (q *stubEventQueue) Enqueue(evt domain.PurchaseCreatedEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, evt)
}

var errStoreDown = errors.New("store unavailable")
