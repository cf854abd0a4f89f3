package request

type DeliveryDetails struct {
	RecipientName string `json:"recipientName"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
	Postcode      string `json:"postcode"`
}

type ProceedToPaymentRequest struct {
	TransactionID   string          `json:"transactionId"`
	DeliveryDetails DeliveryDetails `json:"deliveryDetails"`
}
