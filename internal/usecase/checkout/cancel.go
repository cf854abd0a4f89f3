package checkout

import (
	"context"
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
)

// CancelCheckout closes the hosted session, if any, and fails the caller's
// pending transaction with its stock returned.
func (uc *DefaultCheckoutUsecase) CancelCheckout(ctx context.Context, principal domain.Principal) (err error) {
	ctx, span := uc.startSpan(ctx, "CancelCheckout")
	defer func() { endSpan(span, err) }()

	if err := requireCheckoutRole(principal); err != nil {
		return err
	}

	fx := &effects{}
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		pending, err := repos.Transactions().FindPendingByUser(ctx, principal.ID)
		if err != nil {
			return fmt.Errorf("find pending transactions: %w", err)
		}
		if len(pending) == 0 {
			return domain.ErrNoPendingTransaction
		}
		for _, tx := range pending {
			if tx.HasPaymentSession() {
				if err := uc.gateway.ExpireSession(ctx, *tx.PaymentSessionID); err != nil {
					return err
				}
			}
			if _, err := uc.release(ctx, repos, tx, domain.StatusFailed, reasonCancelled, fx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.flush(ctx, fx)
	return nil
}
