package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
)

// IdempotencyState is what Claim found under a client's Idempotency-Key.
type IdempotencyState int

const (
	// IdempotencyClaimed: the caller now owns the key and must Complete or Release it.
	IdempotencyClaimed IdempotencyState = iota + 1
	// IdempotencyPending: another request owns the key and has not finished.
	IdempotencyPending
	// IdempotencyDone: the key already maps to a purchase.
	IdempotencyDone
)

// IdempotencyStore reserves a client's Idempotency-Key before a purchase is
// written and records the purchase it produced.
type IdempotencyStore interface {
	// Claim atomically reserves the key. The purchase id is only set for IdempotencyDone.
	Claim(ctx context.Context, clientID uuid.UUID, key string) (IdempotencyState, uuid.UUID, error)
	Complete(ctx context.Context, clientID uuid.UUID, key string, purchaseID uuid.UUID) error
	Release(ctx context.Context, clientID uuid.UUID, key string) error
}

// PurchaseEventPublisher delivers purchase events to downstream consumers.
type PurchaseEventPublisher interface {
	Publish(ctx context.Context, evt domain.PurchaseCreatedEvent) error
}

// PurchaseEventQueue accepts events for asynchronous publication.
type PurchaseEventQueue interface {
	Enqueue(evt domain.PurchaseCreatedEvent)
}
