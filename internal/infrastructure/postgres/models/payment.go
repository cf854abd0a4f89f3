package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentSessionModel struct {
	ID          uint            `gorm:"primaryKey"`
	SessionID   string          `gorm:"size:255;not null;unique"`
	CheckoutURL string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency    string          `gorm:"size:8;not null"`
	PaidAt      *time.Time
	CardBrand   string         `gorm:"size:32"`
	CardLast4   string         `gorm:"size:4"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PaymentSessionModel) TableName() string {
	return "payment_sessions"
}

// WebhookEventModel marks a gateway event as processed.
type WebhookEventModel struct {
	EventID     string    `gorm:"primaryKey;size:255"`
	EventType   string    `gorm:"size:64;index"`
	ProcessedAt time.Time `gorm:"not null"`
}

func (WebhookEventModel) TableName() string {
	return "webhook_events"
}
