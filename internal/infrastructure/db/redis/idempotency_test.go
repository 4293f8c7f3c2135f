package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/storefront/store-api/internal/core/ports"
)

func setupRedis(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return Config{Addr: fmt.Sprintf("%s:%s", host, port.Port())}
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, setupRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, time.Minute)
	clientID := uuid.New()

	state, _, err := store.Claim(ctx, clientID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyClaimed, state)

	state, _, err = store.Claim(ctx, clientID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyPending, state, "a second claim waits on the first")

	state, _, err = store.Claim(ctx, uuid.New(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyClaimed, state, "keys are scoped per client")

	purchaseID := uuid.New()
	require.NoError(t, store.Complete(ctx, clientID, "order-1", purchaseID))

	state, got, err := store.Claim(ctx, clientID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyDone, state)
	assert.Equal(t, purchaseID, got)

	ttl, err := client.TTL(ctx, store.key(clientID, "order-1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestIdempotencyStoreRelease(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, setupRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, time.Minute)
	clientID := uuid.New()

	state, _, err := store.Claim(ctx, clientID, "order-2")
	require.NoError(t, err)
	require.Equal(t, ports.IdempotencyClaimed, state)

	pendingTTL, err := client.TTL(ctx, store.key(clientID, "order-2")).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, pendingTTL, DefaultPendingTTL)

	require.NoError(t, store.Release(ctx, clientID, "order-2"))

	state, _, err = store.Claim(ctx, clientID, "order-2")
	require.NoError(t, err)
	assert.Equal(t, ports.IdempotencyClaimed, state, "a released key can be claimed again")
}

func TestIdempotencyStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, setupRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, 0)
	assert.Equal(t, DefaultIdempotencyTTL, store.ttl)

	clientID := uuid.New()
	require.NoError(t, client.Set(ctx, store.key(clientID, "k"), "not-a-uuid", time.Minute).Err())

	_, _, err = store.Claim(ctx, clientID, "k")
	assert.Error(t, err)
}

func TestIdempotencyKeyFormat(t *testing.T) {
	store := NewIdempotencyStore(nil, time.Minute)
	id := uuid.MustParse("5f0c3b52-9d57-4b59-9a3c-0d1b0fe4c7a1")
	assert.Equal(t, "purchase:idem:5f0c3b52-9d57-4b59-9a3c-0d1b0fe4c7a1:abc", store.key(id, "abc"))
}
