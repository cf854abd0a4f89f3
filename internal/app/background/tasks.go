package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type StaleTransactionSweeper interface {
	ExpireStaleTransactions(ctx context.Context) (int, error)
}

// Locker elects a single sweeper across replicas.
type Locker interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

type Runner interface {
	Run(ctx context.Context) error
}

type BackgroundTasks struct {
	Sweeper        StaleTransactionSweeper
	ReaperLock     Locker
	DeliveryStatus Runner
	ReaperInterval time.Duration
	Logger         *zap.Logger

	wg sync.WaitGroup
}

// NewBackgroundTasks builds the task set. lock and deliveryStatus may be nil:
// without a lock every replica sweeps, without a consumer no courier updates
// are applied.
func NewBackgroundTasks(
	sweeper StaleTransactionSweeper,
	lock Locker,
	deliveryStatus Runner,
	reaperInterval time.Duration,
	logger *zap.Logger,
) *BackgroundTasks {
	return &BackgroundTasks{
		Sweeper:        sweeper,
		ReaperLock:     lock,
		DeliveryStatus: deliveryStatus,
		ReaperInterval: reaperInterval,
		Logger:         logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		bt.startReaper(ctx)
	}()

	if bt.DeliveryStatus != nil {
		bt.wg.Add(1)
		go func() {
			defer bt.wg.Done()
			bt.startDeliveryStatusConsumer(ctx)
		}()
	}
}

// Wait blocks until every started task has returned.
func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

func (bt *BackgroundTasks) startReaper(ctx context.Context) {
	ticker := time.NewTicker(bt.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.Sweep(ctx)
		}
	}
}

// Sweep runs one reaper pass and reports whether this replica ran it.
func (bt *BackgroundTasks) Sweep(ctx context.Context) bool {
	if bt.ReaperLock != nil {
		release, ok, err := bt.ReaperLock.TryAcquire(ctx)
		if err != nil {
			bt.Logger.Warn("reaper lock unavailable, skipping sweep", zap.Error(err))
			return false
		}
		if !ok {
			bt.Logger.Debug("another replica holds the reaper lock")
			return false
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				bt.Logger.Warn("failed to release reaper lock", zap.Error(err))
			}
		}()
	}

	n, err := bt.Sweeper.ExpireStaleTransactions(ctx)
	if err != nil {
		bt.Logger.Error("reaper sweep failed", zap.Error(err))
		return true
	}
	if n > 0 {
		bt.Logger.Info("reaper expired transactions", zap.Int("count", n))
	}
	return true
}

func (bt *BackgroundTasks) startDeliveryStatusConsumer(ctx context.Context) {
	if err := bt.DeliveryStatus.Run(ctx); err != nil && ctx.Err() == nil {
		bt.Logger.Error("delivery status consumer stopped", zap.Error(err))
	}
}
