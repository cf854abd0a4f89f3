package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel maps the catalogue's products table. Only the columns the
// checkout reads or moves are declared.
type ProductModel struct {
	ID              string          `gorm:"primaryKey;size:64"`
	Name            string          `gorm:"not null"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountedPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PromoActive     bool            `gorm:"not null;default:false"`
	AvailableQty    int             `gorm:"not null;default:0;check:chk_products_available_qty,available_qty >= 0"`
	MinOrderQty     int             `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

type CartItemModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;not null;index"`
	ProductID string `gorm:"size:64;not null"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartItemModel) TableName() string {
	return "cart_items"
}
