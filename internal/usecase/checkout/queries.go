package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

// GetPendingTransactionID returns the caller's live pending transaction id.
// Colliding or stale rows found on the way are failed and released.
func (uc *DefaultCheckoutUsecase) GetPendingTransactionID(ctx context.Context, principal domain.Principal) (transactionID string, err error) {
	ctx, span := uc.startSpan(ctx, "GetPendingTransactionID")
	defer func() { endSpan(span, err) }()

	if err := requireCheckoutRole(principal); err != nil {
		return "", err
	}

	fx := &effects{}
	var outcome error
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		pending, err := repos.Transactions().FindPendingByUser(ctx, principal.ID)
		if err != nil {
			return fmt.Errorf("find pending transactions: %w", err)
		}
		switch {
		case len(pending) == 0:
			return domain.ErrNoPendingTransaction
		case len(pending) > 1:
			if err := uc.failCollided(ctx, repos, pending, fx); err != nil {
				return err
			}
			outcome = domain.ErrTransactionCollision
			return nil
		}

		tx := pending[0]
		expired, err := uc.expireIfStale(ctx, repos, tx, reasonExpired, fx)
		if err != nil {
			return err
		}
		if expired {
			outcome = domain.ErrTransactionExpired
			return nil
		}
		transactionID = tx.TransactionID
		return nil
	})
	if err != nil {
		return "", err
	}
	uc.flush(ctx, fx)
	if outcome != nil {
		return "", outcome
	}
	return transactionID, nil
}

func (uc *DefaultCheckoutUsecase) GetDeliveryFee(ctx context.Context, postcode string) (decimal.Decimal, error) {
	postcode = strings.TrimSpace(postcode)
	if !postcodePattern.MatchString(postcode) {
		return decimal.Zero, domain.ErrInvalidPostcode
	}
	return uc.fees.GetDeliveryFee(ctx, postcode)
}

// GetTransaction returns one of the caller's transactions with its line
// items, delivery and payment.
func (uc *DefaultCheckoutUsecase) GetTransaction(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error) {
	if principal.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.uow.Transactions().GetByTransactionIDAndUser(ctx, transactionID, principal.ID)
}

func (uc *DefaultCheckoutUsecase) UpdateDeliveryStatus(ctx context.Context, trackingNumber string, status domain.DeliveryStatus) error {
	if trackingNumber == "" || status == "" {
		return domain.ErrDeliveryNotFound
	}
	return uc.uow.Transactions().UpdateDeliveryStatusByTracking(ctx, trackingNumber, status)
}
