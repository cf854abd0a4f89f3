package domain

import (
	"context"
	"time"
)

type TransactionRepository interface {
	// Create inserts the transaction row and its line items and fills RowID.
	Create(ctx context.Context, tx *Transaction) error
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	GetByTransactionIDAndUser(ctx context.Context, transactionID, userID string) (*Transaction, error)

	// The Find* queries lock the returned rows for the rest of the unit of work.
	FindPendingByUser(ctx context.Context, userID string) ([]*Transaction, error)
	FindPendingByTransactionID(ctx context.Context, transactionID string) ([]*Transaction, error)
	FindPendingByTransactionIDAndUser(ctx context.Context, transactionID, userID string) ([]*Transaction, error)
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]*Transaction, error)

	// CompareAndSetStatus moves the row from one status to another and
	// reports whether this call performed the transition.
	CompareAndSetStatus(ctx context.Context, rowID uint, from, to TransactionStatus) (bool, error)

	GetLineItems(ctx context.Context, rowID uint) ([]*LineItem, error)
	UpdateLineItemsStatus(ctx context.Context, rowID uint, from, to LineItemStatus) (int64, error)

	AttachDelivery(ctx context.Context, rowID uint, delivery *DeliveryRecord) error
	GetDelivery(ctx context.Context, deliveryID uint) (*DeliveryRecord, error)
	UpdateDelivery(ctx context.Context, delivery *DeliveryRecord) error
	UpdateDeliveryStatusByTracking(ctx context.Context, trackingNumber string, status DeliveryStatus) error

	AttachPaymentSession(ctx context.Context, rowID uint, session *PaymentSession) error
	GetPaymentSession(ctx context.Context, sessionID string) (*PaymentSession, error)
	UpdatePaymentSession(ctx context.Context, session *PaymentSession) error
}

type InventoryRepository interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	// TryDecrement subtracts qty only when at least qty is available.
	TryDecrement(ctx context.Context, productID string, qty int) (bool, error)
	Increment(ctx context.Context, productID string, qty int) error
}

type CartRepository interface {
	GetCartItems(ctx context.Context, userID string) ([]*CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}

type WebhookEventRepository interface {
	// MarkProcessed records the event id and returns false when it was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

type Repositories interface {
	Transactions() TransactionRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	WebhookEvents() WebhookEventRepository
}

// UnitOfWork runs fn inside one database transaction. Any error returned by
// fn rolls back every write made through the repositories it received.
type UnitOfWork interface {
	Repositories
	Atomic(ctx context.Context, fn func(repos Repositories) error) error
}
