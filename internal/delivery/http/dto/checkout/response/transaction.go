package response

import (
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
)

type LineItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
	Status    string `json:"status"`
}

type DeliveryResponse struct {
	RecipientName  string `json:"recipientName"`
	ContactNumber  string `json:"contactNumber"`
	Address        string `json:"address"`
	Postcode       string `json:"postcode,omitempty"`
	Fee            string `json:"fee"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type PaymentResponse struct {
	CheckoutURL string     `json:"checkoutUrl"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CardBrand   string     `json:"cardBrand,omitempty"`
	CardLast4   string     `json:"cardLast4,omitempty"`
}

type TransactionResponse struct {
	TransactionID string             `json:"transactionId"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	Items         []LineItemResponse `json:"items"`
	ItemsTotal    string             `json:"itemsTotal"`
	Delivery      *DeliveryResponse  `json:"delivery,omitempty"`
	Payment       *PaymentResponse   `json:"payment,omitempty"`
}

func FromTransaction(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: tx.TransactionID,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		Items:         make([]LineItemResponse, 0, len(tx.LineItems)),
		ItemsTotal:    domain.ItemsTotal(tx.LineItems).StringFixed(2),
	}
	for _, li := range tx.LineItems {
		resp.Items = append(resp.Items, LineItemResponse{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice.StringFixed(2),
			Subtotal:  li.Subtotal().StringFixed(2),
			Status:    string(li.Status),
		})
	}
	if d := tx.Delivery; d != nil {
		resp.Delivery = &DeliveryResponse{
			RecipientName: d.RecipientName,
			ContactNumber: d.ContactNumber,
			Address:       d.Address,
			Postcode:      d.Postcode,
			Fee:           d.Fee.StringFixed(2),
			Status:        string(d.Status),
		}
		if d.TrackingNumber != nil {
			resp.Delivery.TrackingNumber = *d.TrackingNumber
		}
	}
	if p := tx.Payment; p != nil {
		resp.Payment = &PaymentResponse{
			CheckoutURL: p.CheckoutURL,
			Amount:      p.Amount.StringFixed(2),
			Currency:    p.Currency,
			PaidAt:      p.PaidAt,
			CardBrand:   p.CardBrand,
			CardLast4:   p.CardLast4,
		}
	}
	return resp
}
