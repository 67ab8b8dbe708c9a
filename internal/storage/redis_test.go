package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis tests need a live server; set ATLAS_TEST_REDIS_ADDR to run them.
func openTestRedis(t *testing.T, namespace string, ttl time.Duration) *Redis {
	t.Helper()
	addr := os.Getenv("ATLAS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ATLAS_TEST_REDIS_ADDR not set")
	}
	r, err := NewRedis(context.Background(), RedisOptions{
		Addr:      addr,
		Namespace: namespace,
		TTL:       ttl,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_GetSetDeleteWithTTL(t *testing.T) {
	ctx := context.Background()
	namespace := "atlas-test:" + uuid.NewString()
	r := openTestRedis(t, namespace, time.Minute)

	_, ok, err := r.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, KeyFavorites, `["USA"]`))
	value, ok, err := r.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["USA"]`, value)

	ttl, err := r.client.TTL(ctx, r.key(KeyFavorites)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, r.Delete(ctx, KeyFavorites))
	_, ok, err = r.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_WatchReceivesAnnouncements(t *testing.T) {
	ctx := context.Background()
	namespace := "atlas-test:" + uuid.NewString()
	writerBackend := openTestRedis(t, namespace, 0)
	readerBackend := openTestRedis(t, namespace, 0)

	var mu sync.Mutex
	var seen []Change
	stop, err := readerBackend.Watch(ctx, func(c Change) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, writerBackend.Announce(ctx, Change{Key: KeyTheme, Origin: "writer"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, Change{Key: KeyTheme, Origin: "writer"}, seen[0])
}
