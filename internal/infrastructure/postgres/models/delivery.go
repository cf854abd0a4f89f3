package models

import (
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type DeliveryRecordModel struct {
	ID             uint                  `gorm:"primaryKey"`
	RecipientName  string                `gorm:"not null"`
	ContactNumber  string                `gorm:"size:32;not null"`
	Address        string                `gorm:"not null"`
	Postcode       string                `gorm:"size:16"`
	Fee            decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	Status         domain.DeliveryStatus `gorm:"size:32;not null"`
	TrackingNumber *string               `gorm:"size:64;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (DeliveryRecordModel) TableName() string {
	return "delivery_records"
}
