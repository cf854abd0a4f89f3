package checkout

import (
	"context"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type terminalRecord struct {
	status domain.TransactionStatus
	reason string
}

// effects collects what a unit of work changed so events and metrics are
// emitted only after it commits.
type effects struct {
	events        []domain.CheckoutEvent
	terminal      []terminalRecord
	releasedUnits int
}

func (fx *effects) addEvent(event domain.CheckoutEvent) {
	fx.events = append(fx.events, event)
}

func (fx *effects) addTerminal(status domain.TransactionStatus, reason string) {
	fx.terminal = append(fx.terminal, terminalRecord{status: status, reason: reason})
}

func (uc *DefaultCheckoutUsecase) flush(ctx context.Context, fx *effects) {
	if uc.metrics != nil {
		for _, t := range fx.terminal {
			uc.metrics.RecordTerminal(string(t.status), t.reason)
		}
		if fx.releasedUnits > 0 {
			uc.metrics.RecordReleased(fx.releasedUnits)
		}
	}
	if uc.publisher == nil || len(fx.events) == 0 {
		return
	}

	events := fx.events
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		for _, event := range events {
			if err := uc.publisher.PublishCheckoutEvent(pubCtx, event); err != nil {
				uc.logger.Error("failed to publish checkout event",
					zap.String("type", string(event.Type)),
					zap.String("transaction_id", event.TransactionID),
					zap.Error(err),
				)
			}
		}
	}()
}

func (uc *DefaultCheckoutUsecase) newEvent(eventType domain.CheckoutEventType, tx *domain.Transaction) domain.CheckoutEvent {
	return domain.CheckoutEvent{
		Type:          eventType,
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		Status:        string(tx.Status),
		OccurredAt:    uc.clock(),
	}
}
