package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type GatewayEventType string

const (
	EventCheckoutCompleted  GatewayEventType = "checkout.session.completed"
	EventAsyncPaymentFailed GatewayEventType = "checkout.session.async_payment_failed"
	EventCheckoutExpired    GatewayEventType = "checkout.session.expired"
)

type CheckoutSessionRequest struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	SuccessURL    string
	CancelURL     string

	// ExpiresAt asks the gateway to close the hosted page at that instant.
	ExpiresAt time.Time
}

type CheckoutSession struct {
	ID  string
	URL string
}

type SessionDetails struct {
	ID            string
	Status        string
	PaymentStatus string
	AmountTotal   decimal.Decimal
	CardBrand     string
	CardLast4     string
	PaidAt        *time.Time
	Raw           []byte
}

// GatewayEvent is a verified webhook event.
type GatewayEvent struct {
	ID            string
	Type          GatewayEventType
	TransactionID string
	SessionID     string
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error)
	// ExpireSession closes an open session. It returns ErrPaymentCompleted
	// when the customer already paid and nil when the session had expired.
	ExpireSession(ctx context.Context, sessionID string) error
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signatureHeader string) (*GatewayEvent, error)
}

type DeliveryFeeProvider interface {
	GetDeliveryFee(ctx context.Context, postcode string) (decimal.Decimal, error)
}

type DeliveryDispatcher interface {
	// CreateDeliveryOrder books the courier and returns its tracking number.
	CreateDeliveryOrder(ctx context.Context, delivery *DeliveryRecord) (string, error)
}
