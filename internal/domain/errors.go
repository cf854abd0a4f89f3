package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized              = errors.New("unauthorized")
	ErrForbidden                 = errors.New("role is not allowed to checkout")
	ErrCartEmpty                 = errors.New("cart is empty")
	ErrTransactionAlreadyPending = errors.New("transaction already pending")
	ErrCouldNotGenerateID        = errors.New("could not generate unique id")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrProductNotFound           = errors.New("product not found")
	ErrMissingDeliveryFields     = errors.New("recipient name, contact number and address are required")
	ErrInvalidPostcode           = errors.New("invalid postcode")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrTransactionCollision      = errors.New("transaction id collision")
	ErrTransactionExpired        = errors.New("transaction expired")
	ErrNoPendingTransaction      = errors.New("no pending transaction")
	ErrInvalidSignature          = errors.New("invalid webhook signature")
	ErrGateway                   = errors.New("payment gateway error")
	ErrPaymentCompleted          = errors.New("payment already completed")
	ErrDeliveryNotFound          = errors.New("delivery record not found")
)

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

type BelowMinimumOrderError struct {
	ProductID   string
	ProductName string
	Requested   int
	Minimum     int
}

func (e *BelowMinimumOrderError) Error() string {
	return fmt.Sprintf("minimum order quantity for product %s (%s) is %d, requested %d",
		e.ProductName, e.ProductID, e.Minimum, e.Requested)
}
