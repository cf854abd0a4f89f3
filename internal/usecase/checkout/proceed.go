package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

var postcodePattern = regexp.MustCompile(`^[0-9]{6}$`)

func validateDeliveryDetails(details domain.DeliveryDetails) (domain.DeliveryDetails, error) {
	details.RecipientName = strings.TrimSpace(details.RecipientName)
	details.ContactNumber = strings.TrimSpace(details.ContactNumber)
	details.Address = strings.TrimSpace(details.Address)
	details.Postcode = strings.TrimSpace(details.Postcode)

	if details.RecipientName == "" || details.ContactNumber == "" || details.Address == "" {
		return details, domain.ErrMissingDeliveryFields
	}
	if details.Postcode != "" && !postcodePattern.MatchString(details.Postcode) {
		return details, domain.ErrInvalidPostcode
	}
	return details, nil
}

// ProceedToPayment attaches delivery details to the caller's pending
// transaction and opens a hosted checkout session for items plus delivery.
// A transaction that already has a session gets the stored URL back.
func (uc *DefaultCheckoutUsecase) ProceedToPayment(
	ctx context.Context,
	principal domain.Principal,
	transactionID string,
	details domain.DeliveryDetails,
) (checkoutURL string, err error) {
	ctx, span := uc.startSpan(ctx, "ProceedToPayment")
	defer func() { endSpan(span, err) }()

	if err := requireCheckoutRole(principal); err != nil {
		return "", err
	}
	details, err = validateDeliveryDetails(details)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(transactionID) == "" {
		return "", domain.ErrTransactionNotFound
	}

	fx := &effects{}
	var (
		outcome error
		reused  bool
		session *domain.PaymentSession
	)
	err = uc.uow.Atomic(ctx, func(repos domain.Repositories) error {
		rows, err := repos.Transactions().FindPendingByTransactionIDAndUser(ctx, transactionID, principal.ID)
		if err != nil {
			return fmt.Errorf("find pending transaction: %w", err)
		}
		switch {
		case len(rows) == 0:
			return domain.ErrTransactionNotFound
		case len(rows) > 1:
			if err := uc.failCollided(ctx, repos, rows, fx); err != nil {
				return err
			}
			outcome = domain.ErrTransactionCollision
			return nil
		}

		tx := rows[0]
		expired, err := uc.expireIfStale(ctx, repos, tx, reasonExpired, fx)
		if err != nil {
			return err
		}
		if expired {
			outcome = domain.ErrTransactionExpired
			return nil
		}

		if tx.HasPaymentSession() {
			existing, err := repos.Transactions().GetPaymentSession(ctx, *tx.PaymentSessionID)
			if err != nil {
				return fmt.Errorf("load payment session: %w", err)
			}
			session, reused = existing, true
			return nil
		}

		session, err = uc.openPaymentSession(ctx, repos, tx, details)
		if err != nil {
			return err
		}
		event := uc.newEvent(domain.CheckoutSessionCreated, tx)
		event.Amount = session.Amount.StringFixed(2)
		fx.addEvent(event)
		return nil
	})

	if uc.metrics != nil {
		amount := 0.0
		if err == nil && outcome == nil && !reused {
			amount = session.Amount.InexactFloat64()
		}
		uc.metrics.RecordSession(sessionOutcome(err, outcome, reused), uc.settings.Currency, amount)
	}
	if err != nil {
		return "", err
	}
	uc.flush(ctx, fx)
	if outcome != nil {
		return "", outcome
	}
	return session.CheckoutURL, nil
}

func (uc *DefaultCheckoutUsecase) openPaymentSession(
	ctx context.Context,
	repos domain.Repositories,
	tx *domain.Transaction,
	details domain.DeliveryDetails,
) (*domain.PaymentSession, error) {
	fee, err := uc.fees.GetDeliveryFee(ctx, details.Postcode)
	if err != nil {
		return nil, fmt.Errorf("get delivery fee: %w", err)
	}

	delivery := &domain.DeliveryRecord{
		RecipientName: details.RecipientName,
		ContactNumber: details.ContactNumber,
		Address:       details.Address,
		Postcode:      details.Postcode,
		Fee:           fee,
		Status:        domain.DeliveryAwaitingPayment,
	}
	if err := repos.Transactions().AttachDelivery(ctx, tx.RowID, delivery); err != nil {
		return nil, err
	}

	items, err := repos.Transactions().GetLineItems(ctx, tx.RowID)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	total := domain.ItemsTotal(items).Add(fee)

	created, err := uc.gateway.CreateSession(ctx, domain.CheckoutSessionRequest{
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		Amount:        total,
		Currency:      uc.settings.Currency,
		Description:   fmt.Sprintf("Order %s", tx.TransactionID),
		SuccessURL:    uc.settings.SuccessURL,
		CancelURL:     uc.settings.CancelURL,
		ExpiresAt:     tx.CreatedAt.Add(uc.settings.TransactionTTL),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrGateway) {
			err = fmt.Errorf("%w: %v", domain.ErrGateway, err)
		}
		return nil, err
	}

	session := &domain.PaymentSession{
		SessionID:   created.ID,
		CheckoutURL: created.URL,
		Amount:      total,
		Currency:    uc.settings.Currency,
	}
	if err := repos.Transactions().AttachPaymentSession(ctx, tx.RowID, session); err != nil {
		// Nothing local points at the hosted page after the rollback.
		if expireErr := uc.gateway.ExpireSession(context.WithoutCancel(ctx), created.ID); expireErr != nil {
			uc.logger.Error("failed to expire orphaned checkout session",
				zap.String("transaction_id", tx.TransactionID),
				zap.String("session_id", created.ID),
				zap.Error(expireErr),
			)
		}
		return nil, fmt.Errorf("attach payment session: %w", err)
	}

	uc.logger.Info("payment session created",
		zap.String("transaction_id", tx.TransactionID),
		zap.String("session_id", created.ID),
		zap.String("amount", total.StringFixed(2)),
	)
	return session, nil
}

func sessionOutcome(err, outcome error, reused bool) string {
	switch {
	case err != nil && errors.Is(err, domain.ErrGateway):
		return "gateway_error"
	case err != nil && errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case err != nil:
		return "error"
	case errors.Is(outcome, domain.ErrTransactionCollision):
		return "collision"
	case errors.Is(outcome, domain.ErrTransactionExpired):
		return "expired"
	case reused:
		return "reused"
	default:
		return "created"
	}
}
