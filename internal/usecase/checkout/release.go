package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

const (
	reasonExpired   = "expired"
	reasonTimeout   = "timeout"
	reasonCollision = "collision"
	reasonCancelled = "cancelled"
	reasonGateway   = "gateway_failed"
)

// release moves a pending transaction to the terminal status and returns its
// reserved stock. The status change is a compare-and-set, so a transaction
// that is already terminal is left untouched and nothing is restocked twice.
func (uc *DefaultCheckoutUsecase) release(
	ctx context.Context,
	repos domain.Repositories,
	tx *domain.Transaction,
	to domain.TransactionStatus,
	reason string,
	fx *effects,
) (bool, error) {
	moved, err := repos.Transactions().CompareAndSetStatus(ctx, tx.RowID, domain.StatusPending, to)
	if err != nil {
		return false, fmt.Errorf("transition transaction %s: %w", tx.TransactionID, err)
	}
	if !moved {
		return false, nil
	}
	tx.Status = to

	items, err := repos.Transactions().GetLineItems(ctx, tx.RowID)
	if err != nil {
		return false, fmt.Errorf("load line items of %s: %w", tx.TransactionID, err)
	}

	units := 0
	for _, li := range items {
		if li.Status != domain.LineItemReserved {
			continue
		}
		if err := repos.Inventory().Increment(ctx, li.ProductID, li.Quantity); err != nil {
			return false, fmt.Errorf("restock product %s: %w", li.ProductID, err)
		}
		units += li.Quantity
	}
	if _, err := repos.Transactions().UpdateLineItemsStatus(ctx, tx.RowID, domain.LineItemReserved, domain.LineItemInvalid); err != nil {
		return false, fmt.Errorf("invalidate line items of %s: %w", tx.TransactionID, err)
	}

	uc.logger.Info("transaction released",
		zap.String("transaction_id", tx.TransactionID),
		zap.String("user_id", tx.UserID),
		zap.String("status", string(to)),
		zap.String("reason", reason),
		zap.Int("units", units),
	)

	fx.releasedUnits += units
	fx.addTerminal(to, reason)
	event := uc.newEvent(domain.CheckoutFailed, tx)
	if reason == reasonCancelled {
		event.Type = domain.CheckoutCancelled
	}
	event.Reason = reason
	fx.addEvent(event)
	return true, nil
}

// expireIfStale fails tx once it outlived the TTL. A hosted session is closed
// at the gateway first; when the customer already paid the transaction stays
// PENDING for the completion webhook.
func (uc *DefaultCheckoutUsecase) expireIfStale(
	ctx context.Context,
	repos domain.Repositories,
	tx *domain.Transaction,
	reason string,
	fx *effects,
) (bool, error) {
	if !tx.ExpiredAt(uc.clock(), uc.settings.TransactionTTL) {
		return false, nil
	}
	if tx.HasPaymentSession() {
		if err := uc.gateway.ExpireSession(ctx, *tx.PaymentSessionID); err != nil {
			if errors.Is(err, domain.ErrPaymentCompleted) {
				uc.logger.Warn("stale transaction is already paid, waiting for the webhook",
					zap.String("transaction_id", tx.TransactionID),
					zap.String("session_id", *tx.PaymentSessionID),
				)
				return false, nil
			}
			return false, err
		}
	}
	return uc.release(ctx, repos, tx, domain.StatusFailed, reason, fx)
}

// failCollided fails every row sharing one transaction id.
func (uc *DefaultCheckoutUsecase) failCollided(
	ctx context.Context,
	repos domain.Repositories,
	rows []*domain.Transaction,
	fx *effects,
) error {
	uc.logger.Warn("transaction id collision",
		zap.String("transaction_id", rows[0].TransactionID),
		zap.Int("rows", len(rows)),
	)
	for _, tx := range rows {
		if _, err := uc.release(ctx, repos, tx, domain.StatusFailed, reasonCollision, fx); err != nil {
			return err
		}
	}
	return nil
}
