package response

type TransactionIDResponse struct {
	TransactionID string `json:"transactionId"`
}

type ProceedToPaymentResponse struct {
	URL string `json:"url"`
}

type DeliveryFeeResponse struct {
	Postcode string `json:"postcode"`
	Fee      string `json:"fee"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
