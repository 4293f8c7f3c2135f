package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/store-api/internal/core/ports"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	// DefaultPendingTTL bounds how long a crashed request can hold a key.
	DefaultPendingTTL = 2 * time.Minute

	pendingMarker = "pending"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore maps a client's Idempotency-Key to the purchase it created.
// A key is claimed with a pending marker before the purchase is written and
// overwritten with the purchase id once it commits.
// Key format: purchase:idem:<client_id>:<key>
type IdempotencyStore struct {
	client     redis.Cmdable
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, pendingTTL: DefaultPendingTTL}
}

// Claim sets the pending marker with SETNX. When the key exists it reports
// whether it is still pending or already holds a purchase id.
func (s *IdempotencyStore) Claim(ctx context.Context, clientID uuid.UUID, key string) (ports.IdempotencyState, uuid.UUID, error) {
	k := s.key(clientID, key)
	// Two rounds cover a key released between SETNX and GET.
	for range 2 {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
		if err != nil {
			return 0, uuid.Nil, fmt.Errorf("idempotency claim: %w", err)
		}
		if ok {
			return ports.IdempotencyClaimed, uuid.Nil, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, uuid.Nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if val == pendingMarker {
			return ports.IdempotencyPending, uuid.Nil, nil
		}
		id, err := uuid.Parse(val)
		if err != nil {
			return 0, uuid.Nil, fmt.Errorf("idempotency value %q: %w", val, err)
		}
		return ports.IdempotencyDone, id, nil
	}
	return ports.IdempotencyPending, uuid.Nil, nil
}

// Complete points the key at purchaseID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, clientID uuid.UUID, key string, purchaseID uuid.UUID) error {
	if err := s.client.Set(ctx, s.key(clientID, key), purchaseID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a claim so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, clientID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, s.key(clientID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(clientID uuid.UUID, key string) string {
	return fmt.Sprintf("purchase:idem:%s:%s", clientID, key)
}
