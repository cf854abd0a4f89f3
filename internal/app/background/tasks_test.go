package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/redisx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) ExpireStaleTransactions(context.Context) (int, error) {
	s.calls.Add(1)
	return 2, s.err
}

type blockingRunner struct {
	started chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return ctx.Err()
}

func newLock(t *testing.T) (*redisx.Lock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redisx.NewLock(rdb, redisx.KeyReaperLock, time.Minute), mr
}

func TestSweep_WithoutLock(t *testing.T) {
	sweeper := &countingSweeper{}
	bt := NewBackgroundTasks(sweeper, nil, nil, time.Minute, zap.NewNop())

	assert.True(t, bt.Sweep(context.Background()))
	assert.EqualValues(t, 1, sweeper.calls.Load())
}

func TestSweep_SkipsWhileAnotherReplicaHoldsLock(t *testing.T) {
	lock, mr := newLock(t)
	sweeper := &countingSweeper{}
	bt := NewBackgroundTasks(sweeper, lock, nil, time.Minute, zap.NewNop())

	require.NoError(t, mr.Set(redisx.KeyReaperLock, "other-replica"))
	assert.False(t, bt.Sweep(context.Background()))
	assert.Zero(t, sweeper.calls.Load())

	mr.Del(redisx.KeyReaperLock)
	assert.True(t, bt.Sweep(context.Background()))
	assert.EqualValues(t, 1, sweeper.calls.Load())
	assert.False(t, mr.Exists(redisx.KeyReaperLock), "lock released after the sweep")
}

func TestSweep_ReleasesLockOnError(t *testing.T) {
	lock, mr := newLock(t)
	sweeper := &countingSweeper{err: errors.New("db down")}
	bt := NewBackgroundTasks(sweeper, lock, nil, time.Minute, zap.NewNop())

	assert.True(t, bt.Sweep(context.Background()))
	assert.False(t, mr.Exists(redisx.KeyReaperLock))
}

func TestStartAll_RunsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	runner := &blockingRunner{started: make(chan struct{})}
	bt := NewBackgroundTasks(sweeper, nil, runner, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	bt.StartAll(ctx)

	<-runner.started
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		bt.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background tasks did not stop")
	}
}
