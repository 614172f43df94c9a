package memory

import (
	"context"
	"testing"
	"time"

	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepositoryGetSetExpire(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	_, err := cache.Get(ctx, "report:a")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "report:a", []byte("body"), time.Minute))
	got, err := cache.Get(ctx, "report:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), got)

	ok, err := cache.Exists(ctx, "report:a")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	_, err = cache.Get(ctx, "report:a")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	cache.sweep()
	assert.Equal(t, 0, cache.Len())
}

func TestCacheRepositoryStoresCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)

	body := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", body, 0))
	body[0] = 'z'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestCacheRepositorySets(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheRepository(0)

	members, err := cache.SMembers(ctx, "report-keys:p")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, cache.SAdd(ctx, "report-keys:p", "report:p:b", "report:p:a"))
	require.NoError(t, cache.SAdd(ctx, "report-keys:p", "report:p:a"))
	members, err = cache.SMembers(ctx, "report-keys:p")
	require.NoError(t, err)
	assert.Equal(t, []string{"report:p:a", "report:p:b"}, members)

	require.NoError(t, cache.Set(ctx, "report:p:a", []byte("x"), 0))
	require.NoError(t, cache.Delete(ctx, "report:p:a", "report-keys:p"))
	assert.Equal(t, 0, cache.Len())
}

func TestCacheRepositoryCloseIsIdempotent(t *testing.T) {
	cache := NewCacheRepository(time.Millisecond)
	cache.Close()
	cache.Close()
}
