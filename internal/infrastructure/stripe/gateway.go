package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/config"
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

const metadataTransactionID = "transaction_id"

// Gateway is the hosted-checkout adapter backed by Stripe Checkout Sessions.
type Gateway struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

func NewGateway(cfg config.Stripe) *Gateway {
	var backends *stripeapi.Backends
	if cfg.APIBase != "" {
		backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
			URL:               stripeapi.String(cfg.APIBase),
			MaxNetworkRetries: stripeapi.Int64(0),
		})
		backends = &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	return &Gateway{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		tolerance:     webhook.DefaultTolerance,
	}
}

func (g *Gateway) CreateSession(ctx context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		ClientReferenceID: stripeapi.String(req.TransactionID),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripeapi.String(req.Currency),
					UnitAmount: stripeapi.Int64(ToMinorUnits(req.Amount)),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(req.Description),
					},
				},
				Quantity: stripeapi.Int64(1),
			},
		},
	}
	if expiresAt := clampExpiry(req.ExpiresAt, time.Now()); !expiresAt.IsZero() {
		params.ExpiresAt = stripeapi.Int64(expiresAt.Unix())
	}
	params.Context = ctx
	params.AddMetadata(metadataTransactionID, req.TransactionID)
	params.AddMetadata("user_id", req.UserID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", domain.ErrGateway, err)
	}
	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *Gateway) RetrieveSession(ctx context.Context, sessionID string) (*domain.SessionDetails, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.payment_method")

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session: %v", domain.ErrGateway, err)
	}
	return sessionDetails(s), nil
}

func (g *Gateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripeapi.CheckoutSessionExpireParams{}
	params.Context = ctx
	_, err := g.api.CheckoutSessions.Expire(sessionID, params)
	if err == nil {
		return nil
	}
	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) || stripeErr.HTTPStatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: expire checkout session: %v", domain.ErrGateway, err)
	}

	// Only open sessions can be expired, look up how this one ended.
	getParams := &stripeapi.CheckoutSessionParams{}
	getParams.Context = ctx
	s, getErr := g.api.CheckoutSessions.Get(sessionID, getParams)
	if getErr != nil {
		return fmt.Errorf("%w: expire checkout session: %v", domain.ErrGateway, getErr)
	}
	switch {
	case s.Status == stripeapi.CheckoutSessionStatusComplete,
		s.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid:
		return fmt.Errorf("%w: checkout session %s", domain.ErrPaymentCompleted, sessionID)
	case s.Status == stripeapi.CheckoutSessionStatusExpired:
		return nil
	}
	return fmt.Errorf("%w: expire checkout session: %v", domain.ErrGateway, err)
}

func (g *Gateway) ParseWebhook(payload []byte, signatureHeader string) (*domain.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                g.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &domain.GatewayEvent{
		ID:   event.ID,
		Type: domain.GatewayEventType(event.Type),
	}
	switch out.Type {
	case domain.EventCheckoutCompleted, domain.EventAsyncPaymentFailed, domain.EventCheckoutExpired:
		var s stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session from event %s: %w", event.ID, err)
		}
		out.SessionID = s.ID
		out.TransactionID = s.Metadata[metadataTransactionID]
		if out.TransactionID == "" {
			out.TransactionID = s.ClientReferenceID
		}
	}
	return out, nil
}

// Checkout sessions must expire between 30 minutes and 24 hours after creation.
const (
	minSessionLifetime = 30 * time.Minute
	maxSessionLifetime = 24 * time.Hour
)

func clampExpiry(expiresAt, now time.Time) time.Time {
	if expiresAt.IsZero() {
		return time.Time{}
	}
	if lifetime := expiresAt.Sub(now); lifetime < minSessionLifetime {
		return now.Add(minSessionLifetime)
	} else if lifetime > maxSessionLifetime {
		return now.Add(maxSessionLifetime)
	}
	return expiresAt
}

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func sessionDetails(s *stripeapi.CheckoutSession) *domain.SessionDetails {
	d := &domain.SessionDetails{
		ID:            s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   decimal.New(s.AmountTotal, -2),
	}
	if pi := s.PaymentIntent; pi != nil {
		if pi.Created > 0 {
			paidAt := time.Unix(pi.Created, 0).UTC()
			d.PaidAt = &paidAt
		}
		if pm := pi.PaymentMethod; pm != nil && pm.Card != nil {
			d.CardBrand = string(pm.Card.Brand)
			d.CardLast4 = pm.Card.Last4
		}
	}
	if raw, err := json.Marshal(map[string]any{
		"session_id":     s.ID,
		"payment_status": s.PaymentStatus,
		"amount_total":   s.AmountTotal,
		"currency":       s.Currency,
		"customer_email": customerEmail(s),
	}); err == nil {
		d.Raw = raw
	}
	return d
}

func customerEmail(s *stripeapi.CheckoutSession) string {
	if s.CustomerDetails != nil {
		return s.CustomerDetails.Email
	}
	return ""
}
