package domain

import "github.com/shopspring/decimal"

// Product is owned by the catalogue service; checkout only reads prices and
// moves AvailableQty.
type Product struct {
	ID              string
	Name            string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
	PromoActive     bool
	AvailableQty    int
	MinOrderQty     int
}

// EffectivePrice is the unit price charged right now.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoActive && p.DiscountedPrice.IsPositive() {
		return p.DiscountedPrice
	}
	return p.Price
}

type CartItem struct {
	UserID    string
	ProductID string
	Quantity  int
}
