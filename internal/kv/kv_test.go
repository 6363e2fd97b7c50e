package kv

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type sample struct {
	Name string `json:"name"`
	Step int    `json:"step"`
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	var got sample
	found, err := store.Get(ctx, "state:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "state:1", sample{Name: "broadcast_started", Step: 1}, time.Minute))
	found, err = store.Get(ctx, "state:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "broadcast_started", Step: 1}, got)

	require.NoError(t, store.Delete(ctx, "state:1"))
	found, err = store.Get(ctx, "state:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, "state:unknown"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.February, 8, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "state:7", sample{Name: "a"}, 15*time.Minute))
	require.NoError(t, store.Set(ctx, "botInfo", sample{Name: "b"}, 0))

	now = now.Add(15 * time.Minute)

	var got sample
	found, err := store.Get(ctx, "state:7", &got)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = store.Get(ctx, "botInfo", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, store.Len())
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a redis container")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})
	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: endpoint}))
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)

	require.NoError(t, store.Set(ctx, "state:9", sample{Name: "x"}, 50*time.Millisecond))
	require.Eventually(t, func() bool {
		var got sample
		found, err := store.Get(ctx, "state:9", &got)
		return err == nil && !found
	}, 5*time.Second, 50*time.Millisecond)
}
