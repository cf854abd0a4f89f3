package logger

import (
	"context"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"gorm.io/gorm"
)

// CheckoutEventRecord is one row of the checkout_events audit table.
type CheckoutEventRecord struct {
	ID             uint   `gorm:"primaryKey"`
	Type           string `gorm:"size:64;not null;index"`
	TransactionID  string `gorm:"size:64;not null;index"`
	UserID         string `gorm:"size:64"`
	Status         string `gorm:"size:32"`
	Amount         string `gorm:"size:32"`
	TrackingNumber string `gorm:"size:64"`
	Reason         string
	OccurredAt     time.Time `gorm:"not null"`
}

func (CheckoutEventRecord) TableName() string {
	return "checkout_events"
}

// PGCheckoutEventLogger stores checkout lifecycle events in postgres. It is
// used as the event sink when no broker is configured.
type PGCheckoutEventLogger struct {
	db *gorm.DB
}

func NewPGCheckoutEventLogger(db *gorm.DB) *PGCheckoutEventLogger {
	return &PGCheckoutEventLogger{db: db}
}

func (l *PGCheckoutEventLogger) PublishCheckoutEvent(ctx context.Context, event domain.CheckoutEvent) error {
	return l.db.WithContext(ctx).Create(&CheckoutEventRecord{
		Type:           string(event.Type),
		TransactionID:  event.TransactionID,
		UserID:         event.UserID,
		Status:         event.Status,
		Amount:         event.Amount,
		TrackingNumber: event.TrackingNumber,
		Reason:         event.Reason,
		OccurredAt:     event.OccurredAt,
	}).Error
}

func (l *PGCheckoutEventLogger) ListByTransaction(ctx context.Context, transactionID string) ([]CheckoutEventRecord, error) {
	var records []CheckoutEventRecord
	err := l.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&records).Error
	return records, err
}
