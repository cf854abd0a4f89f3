package models

import (
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionModel struct {
	ID               uint                     `gorm:"primaryKey"`
	TransactionID    string                   `gorm:"size:64;not null;index:idx_transaction_id"`
	UserID           string                   `gorm:"size:64;not null;uniqueIndex:idx_one_pending_per_user,where:status = 'PENDING'"`
	Status           domain.TransactionStatus `gorm:"size:32;not null;index:idx_status_created"`
	DeliveryID       *uint
	Delivery         *DeliveryRecordModel `gorm:"foreignKey:DeliveryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	PaymentSessionID *string              `gorm:"size:255"`
	Payment          *PaymentSessionModel `gorm:"foreignKey:PaymentSessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	LineItems        []LineItemModel      `gorm:"foreignKey:TransactionRowID;references:ID"`
	CreatedAt        time.Time            `gorm:"index:idx_status_created"`
	UpdatedAt        time.Time
}

func (TransactionModel) TableName() string {
	return "transactions"
}

type LineItemModel struct {
	ID               uint                  `gorm:"primaryKey"`
	TransactionRowID uint                  `gorm:"not null;index"`
	ProductID        string                `gorm:"size:64;not null;index"`
	Quantity         int                   `gorm:"not null"`
	UnitPrice        decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	Status           domain.LineItemStatus `gorm:"size:16;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (LineItemModel) TableName() string {
	return "transaction_line_items"
}
