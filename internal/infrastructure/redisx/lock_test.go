package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLock_SingleHolder(t *testing.T) {
	_, rdb := newTestClient(t)
	ctx := context.Background()

	first := NewLock(rdb, KeyReaperLock, time.Minute)
	second := NewLock(rdb, KeyReaperLock, time.Minute)

	release, ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_ReleaseDoesNotDropForeignLease(t *testing.T) {
	mr, rdb := newTestClient(t)
	ctx := context.Background()

	l := NewLock(rdb, KeyReaperLock, time.Second)
	release, ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = NewLock(rdb, KeyReaperLock, time.Minute).TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists(KeyReaperLock))
}

func TestPing(t *testing.T) {
	_, rdb := newTestClient(t)
	require.NoError(t, Ping(context.Background(), rdb))
}
