package checkout

import (
	"context"
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

const (
	webhookProcessed = "processed"
	webhookDuplicate = "duplicate"
	webhookUnmatched = "unmatched"
	webhookCollided  = "collided"
	webhookIgnored   = "ignored"
)

// HandleWebhook verifies a gateway event and drives the referenced
// transaction to its terminal status. Every event id is applied at most once.
func (uc *DefaultCheckoutUsecase) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (err error) {
	ctx, span := uc.startSpan(ctx, "HandleWebhook")
	defer func() { endSpan(span, err) }()

	event, err := uc.gateway.ParseWebhook(payload, signatureHeader)
	if err != nil {
		uc.logger.Warn("rejected webhook", zap.Error(err))
		uc.recordWebhook("unknown", "rejected")
		return err
	}

	log := uc.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("transaction_id", event.TransactionID),
	)

	switch event.Type {
	case domain.EventCheckoutCompleted, domain.EventAsyncPaymentFailed, domain.EventCheckoutExpired:
	default:
		log.Debug("ignoring webhook event type")
		uc.recordWebhook(string(event.Type), webhookIgnored)
		return nil
	}
	if event.TransactionID == "" {
		log.Warn("webhook event carries no transaction id")
		uc.recordWebhook(string(event.Type), webhookUnmatched)
		return nil
	}

	fx := &effects{}
	result := webhookProcessed
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		fresh, err := repos.WebhookEvents().MarkProcessed(ctx, event.ID, string(event.Type))
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !fresh {
			result = webhookDuplicate
			return nil
		}

		rows, err := repos.Transactions().FindPendingByTransactionID(ctx, event.TransactionID)
		if err != nil {
			return fmt.Errorf("find pending transaction: %w", err)
		}
		if len(rows) == 0 {
			result = webhookUnmatched
			return nil
		}

		if event.Type == domain.EventCheckoutCompleted {
			if len(rows) > 1 {
				result = webhookCollided
				return uc.holdCollided(ctx, repos, rows, fx)
			}
			return uc.approve(ctx, repos, rows[0], event, fx)
		}

		reason := reasonExpired
		if event.Type == domain.EventAsyncPaymentFailed {
			reason = reasonGateway
		}
		for _, tx := range rows {
			if _, err := uc.release(ctx, repos, tx, domain.StatusFailed, reason, fx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to apply webhook event", zap.Error(err))
		uc.recordWebhook(string(event.Type), "error")
		return err
	}

	switch result {
	case webhookUnmatched:
		log.Warn("no pending transaction matches webhook event")
	case webhookDuplicate:
		log.Info("webhook event already processed")
	case webhookCollided:
		log.Error("payment received for colliding transaction id, held for manual review")
	default:
		log.Info("webhook event applied")
	}
	uc.recordWebhook(string(event.Type), result)
	uc.flush(ctx, fx)
	return nil
}

// holdCollided parks every colliding row as PAID BUT COLLIDED. Nothing is
// restocked since the payment may already be captured.
func (uc *DefaultCheckoutUsecase) holdCollided(ctx context.Context, repos domain.Repositories, rows []*domain.Transaction, fx *effects) error {
	for _, tx := range rows {
		moved, err := repos.Transactions().CompareAndSetStatus(ctx, tx.RowID, domain.StatusPending, domain.StatusPaidButCollided)
		if err != nil {
			return fmt.Errorf("hold transaction %s: %w", tx.TransactionID, err)
		}
		if !moved {
			continue
		}
		tx.Status = domain.StatusPaidButCollided
		fx.addTerminal(tx.Status, reasonCollision)
		event := uc.newEvent(domain.CheckoutCollided, tx)
		event.Reason = reasonCollision
		fx.addEvent(event)
	}
	return nil
}

func (uc *DefaultCheckoutUsecase) approve(
	ctx context.Context,
	repos domain.Repositories,
	tx *domain.Transaction,
	event *domain.GatewayEvent,
	fx *effects,
) error {
	moved, err := repos.Transactions().CompareAndSetStatus(ctx, tx.RowID, domain.StatusPending, domain.StatusApproved)
	if err != nil {
		return fmt.Errorf("approve transaction %s: %w", tx.TransactionID, err)
	}
	if !moved {
		return nil
	}
	tx.Status = domain.StatusApproved

	if _, err := repos.Transactions().UpdateLineItemsStatus(ctx, tx.RowID, domain.LineItemReserved, domain.LineItemUnclaimed); err != nil {
		return fmt.Errorf("claim line items: %w", err)
	}
	if err := repos.Carts().ClearCart(ctx, tx.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	sessionID := event.SessionID
	if tx.HasPaymentSession() {
		sessionID = *tx.PaymentSessionID
	}
	if sessionID != "" {
		if err := uc.recordPayment(ctx, repos, sessionID); err != nil {
			return err
		}
	}

	out := uc.newEvent(domain.CheckoutApproved, tx)
	if tx.DeliveryID != nil {
		tracking, err := uc.dispatch(ctx, repos, *tx.DeliveryID)
		if err != nil {
			return err
		}
		out.TrackingNumber = tracking
	}

	fx.addTerminal(tx.Status, "paid")
	fx.addEvent(out)
	return nil
}

// recordPayment stores paid-at and card details. The gateway lookup is best
// effort; approval does not depend on it.
func (uc *DefaultCheckoutUsecase) recordPayment(ctx context.Context, repos domain.Repositories, sessionID string) error {
	session, err := repos.Transactions().GetPaymentSession(ctx, sessionID)
	if err != nil {
		uc.logger.Warn("payment session not stored locally", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}

	paidAt := uc.clock()
	session.PaidAt = &paidAt
	details, err := uc.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		uc.logger.Warn("failed to retrieve payment details", zap.String("session_id", sessionID), zap.Error(err))
	} else {
		if details.PaidAt != nil {
			session.PaidAt = details.PaidAt
		}
		session.CardBrand = details.CardBrand
		session.CardLast4 = details.CardLast4
		session.Metadata = details.Raw
	}

	if err := repos.Transactions().UpdatePaymentSession(ctx, session); err != nil {
		return fmt.Errorf("update payment session: %w", err)
	}
	return nil
}

func (uc *DefaultCheckoutUsecase) dispatch(ctx context.Context, repos domain.Repositories, deliveryID uint) (string, error) {
	delivery, err := repos.Transactions().GetDelivery(ctx, deliveryID)
	if err != nil {
		return "", fmt.Errorf("load delivery record: %w", err)
	}
	tracking, err := uc.dispatcher.CreateDeliveryOrder(ctx, delivery)
	if err != nil {
		return "", fmt.Errorf("create delivery order: %w", err)
	}
	delivery.TrackingNumber = &tracking
	delivery.Status = domain.DeliveryProcessing
	if err := repos.Transactions().UpdateDelivery(ctx, delivery); err != nil {
		return "", fmt.Errorf("update delivery record: %w", err)
	}
	return tracking, nil
}

func (uc *DefaultCheckoutUsecase) recordWebhook(eventType, result string) {
	if uc.metrics != nil {
		uc.metrics.RecordWebhook(eventType, result)
	}
}
