package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

// Lock turns the caller's cart into a PENDING transaction. Stock for every
// line is taken with a conditional decrement inside one unit of work, so a
// rejected line leaves no reservation behind.
func (uc *DefaultCheckoutUsecase) Lock(ctx context.Context, principal domain.Principal) (transactionID string, err error) {
	ctx, span := uc.startSpan(ctx, "Lock")
	defer func() { endSpan(span, err) }()

	started := uc.now()
	if err := requireCheckoutRole(principal); err != nil {
		return "", err
	}

	fx := &effects{}
	if err := uc.expireStalePendingForUser(ctx, principal.ID, fx); err != nil {
		return "", err
	}
	uc.flush(ctx, fx)

	fx = &effects{}
	var tx *domain.Transaction
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		pending, err := repos.Transactions().FindPendingByUser(ctx, principal.ID)
		if err != nil {
			return fmt.Errorf("find pending transactions: %w", err)
		}
		if len(pending) > 0 {
			return domain.ErrTransactionAlreadyPending
		}

		id, err := uc.generateTransactionID(ctx, repos)
		if err != nil {
			return err
		}

		cart, err := repos.Carts().GetCartItems(ctx, principal.ID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart) == 0 {
			return domain.ErrCartEmpty
		}

		items := make([]*domain.LineItem, 0, len(cart))
		for _, line := range cart {
			li, err := uc.reserveLine(ctx, repos, line)
			if err != nil {
				return err
			}
			items = append(items, li)
		}

		tx = &domain.Transaction{
			TransactionID: id,
			UserID:        principal.ID,
			Status:        domain.StatusPending,
			CreatedAt:     uc.clock(),
			LineItems:     items,
		}
		return repos.Transactions().Create(ctx, tx)
	})

	units := 0
	if err == nil {
		for _, li := range tx.LineItems {
			units += li.Quantity
		}
	}
	if uc.metrics != nil {
		uc.metrics.RecordLock(lockOutcome(err), units, uc.now().Sub(started).Seconds())
	}
	if err != nil {
		return "", err
	}

	event := uc.newEvent(domain.CheckoutLocked, tx)
	event.Amount = domain.ItemsTotal(tx.LineItems).StringFixed(2)
	fx.addEvent(event)
	uc.flush(ctx, fx)

	uc.logger.Info("cart locked",
		zap.String("transaction_id", tx.TransactionID),
		zap.String("user_id", tx.UserID),
		zap.Int("lines", len(tx.LineItems)),
		zap.Int("units", units),
	)
	return tx.TransactionID, nil
}

func (uc *DefaultCheckoutUsecase) reserveLine(ctx context.Context, repos domain.Repositories, line *domain.CartItem) (*domain.LineItem, error) {
	if line.Quantity <= 0 {
		return nil, fmt.Errorf("%w: product %s quantity %d", domain.ErrInvalidQuantity, line.ProductID, line.Quantity)
	}

	product, err := repos.Inventory().GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
	}
	if product.MinOrderQty > 0 && line.Quantity < product.MinOrderQty {
		return nil, &domain.BelowMinimumOrderError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   line.Quantity,
			Minimum:     product.MinOrderQty,
		}
	}

	ok, err := repos.Inventory().TryDecrement(ctx, product.ID, line.Quantity)
	if err != nil {
		return nil, fmt.Errorf("reserve product %s: %w", product.ID, err)
	}
	if !ok {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   line.Quantity,
			Available:   product.AvailableQty,
		}
	}

	return &domain.LineItem{
		ProductID: product.ID,
		Quantity:  line.Quantity,
		UnitPrice: product.EffectivePrice(),
		Status:    domain.LineItemReserved,
	}, nil
}

// generateTransactionID retries a bounded number of times when the generated
// id is already taken.
func (uc *DefaultCheckoutUsecase) generateTransactionID(ctx context.Context, repos domain.Repositories) (string, error) {
	for attempt := 1; attempt <= uc.settings.MaxIDAttempts; attempt++ {
		id := uc.newID()
		exists, err := repos.Transactions().ExistsByTransactionID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check transaction id: %w", err)
		}
		if !exists {
			return id, nil
		}
		uc.logger.Warn("generated transaction id already exists",
			zap.String("transaction_id", id),
			zap.Int("attempt", attempt),
		)
	}
	return "", domain.ErrCouldNotGenerateID
}

// expireStalePendingForUser commits on its own so the expiry sticks even if
// the lock that follows is rejected.
func (uc *DefaultCheckoutUsecase) expireStalePendingForUser(ctx context.Context, userID string, fx *effects) error {
	return uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		pending, err := repos.Transactions().FindPendingByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("find pending transactions: %w", err)
		}
		for _, tx := range pending {
			if _, err := uc.expireIfStale(ctx, repos, tx, reasonExpired, fx); err != nil {
				return err
			}
		}
		return nil
	})
}

func lockOutcome(err error) string {
	var stockErr *domain.InsufficientStockError
	var moqErr *domain.BelowMinimumOrderError
	switch {
	case err == nil:
		return "locked"
	case errors.Is(err, domain.ErrCartEmpty):
		return "cart_empty"
	case errors.Is(err, domain.ErrTransactionAlreadyPending):
		return "already_pending"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &moqErr):
		return "below_minimum"
	case errors.Is(err, domain.ErrCouldNotGenerateID):
		return "id_exhausted"
	default:
		return "error"
	}
}
