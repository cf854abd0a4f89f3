package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

// ExpireStaleTransactions fails every PENDING transaction older than the TTL,
// closing its hosted session first. Paid sessions and rows the gateway could
// not be reached for are left for the next sweep. It returns how many were
// released.
func (uc *DefaultCheckoutUsecase) ExpireStaleTransactions(ctx context.Context) (expired int, err error) {
	ctx, span := uc.startSpan(ctx, "ExpireStaleTransactions")
	defer func() { endSpan(span, err) }()

	cutoff := uc.clock().Add(-uc.settings.TransactionTTL)
	fx := &effects{}
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		stale, err := repos.Transactions().FindStalePending(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("find stale transactions: %w", err)
		}
		for _, tx := range stale {
			released, err := uc.expireIfStale(ctx, repos, tx, reasonTimeout, fx)
			if errors.Is(err, domain.ErrGateway) {
				uc.logger.Warn("could not close stale checkout session",
					zap.String("transaction_id", tx.TransactionID),
					zap.Error(err),
				)
				continue
			}
			if err != nil {
				return err
			}
			if released {
				expired++
			}
		}
		return nil
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordReaperSweep("error", 0)
		}
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordReaperSweep("ok", expired)
	}
	uc.flush(ctx, fx)
	if expired > 0 {
		uc.logger.Info("expired stale transactions", zap.Int("count", expired))
	}
	return expired, nil
}
