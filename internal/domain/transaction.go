package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending         TransactionStatus = "PENDING"
	StatusApproved        TransactionStatus = "APPROVED"
	StatusFailed          TransactionStatus = "FAILED"
	StatusPaidButCollided TransactionStatus = "PAID BUT COLLIDED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s != StatusPending
}

type LineItemStatus string

const (
	LineItemReserved  LineItemStatus = "RESERVED"
	LineItemUnclaimed LineItemStatus = "UNCLAIMED"
	LineItemInvalid   LineItemStatus = "INVALID"
)

type DeliveryStatus string

const (
	DeliveryAwaitingPayment DeliveryStatus = "AWAITING_PAYMENT"
	DeliveryProcessing      DeliveryStatus = "PROCESSING"
)

// Transaction is one checkout attempt. RowID is the storage identity,
// TransactionID is the externally shared identifier and is not guaranteed
// unique by the schema.
type Transaction struct {
	RowID            uint
	TransactionID    string
	UserID           string
	Status           TransactionStatus
	DeliveryID       *uint
	PaymentSessionID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	LineItems []*LineItem
	Delivery  *DeliveryRecord
	Payment   *PaymentSession
}

// ExpiredAt reports whether the transaction is older than ttl at instant now.
func (t *Transaction) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return !t.CreatedAt.Add(ttl).After(now)
}

func (t *Transaction) HasPaymentSession() bool {
	return t.PaymentSessionID != nil && *t.PaymentSessionID != ""
}

type LineItem struct {
	ID               uint
	TransactionRowID uint
	ProductID        string
	Quantity         int
	UnitPrice        decimal.Decimal
	Status           LineItemStatus
}

func (li *LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ItemsTotal sums price x quantity over the given line items.
func ItemsTotal(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}

type DeliveryDetails struct {
	RecipientName string
	ContactNumber string
	Address       string
	Postcode      string
}

type DeliveryRecord struct {
	ID             uint
	RecipientName  string
	ContactNumber  string
	Address        string
	Postcode       string
	Fee            decimal.Decimal
	Status         DeliveryStatus
	TrackingNumber *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PaymentSession struct {
	ID          uint
	SessionID   string
	CheckoutURL string
	Amount      decimal.Decimal
	Currency    string
	PaidAt      *time.Time
	CardBrand   string
	CardLast4   string
	Metadata    []byte
	CreatedAt   time.Time
}
