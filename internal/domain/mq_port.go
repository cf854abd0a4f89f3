package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

type CheckoutEventType string

const (
	CheckoutLocked         CheckoutEventType = "checkout.locked"
	CheckoutSessionCreated CheckoutEventType = "checkout.session_created"
	CheckoutApproved       CheckoutEventType = "checkout.approved"
	CheckoutFailed         CheckoutEventType = "checkout.failed"
	CheckoutCollided       CheckoutEventType = "checkout.collided"
	CheckoutCancelled      CheckoutEventType = "checkout.cancelled"
)

// CheckoutEvent is emitted after a transaction changes state.
type CheckoutEvent struct {
	Type           CheckoutEventType `json:"type"`
	TransactionID  string            `json:"transaction_id"`
	UserID         string            `json:"user_id"`
	Status         string            `json:"status"`
	Amount         string            `json:"amount,omitempty"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

type CheckoutEventPublisher interface {
	PublishCheckoutEvent(ctx context.Context, event CheckoutEvent) error
}

// DeliveryStatusEvent is consumed from the courier integration.
type DeliveryStatusEvent struct {
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
}
