package handlers

import (
	"io"
	"net/http"

	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/dto/checkout/response"
	"github.com/LavaJover/agromarket-checkout-service/internal/usecase/checkout"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxWebhookBody  = 64 << 10
	signatureHeader = "Stripe-Signature"
)

type WebhookHandler struct {
	uc     checkout.CheckoutUsecase
	logger *zap.Logger
}

func NewWebhookHandler(uc checkout.CheckoutUsecase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		uc:     uc,
		logger: logger,
	}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhook/stripeWebhook", h.stripeWebhook)
}

// stripeWebhook hands the raw body to the use case. The signature covers the
// exact bytes, so the body is never decoded here.
func (h *WebhookHandler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, response.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Error: "cannot read body"})
		return
	}
	if err := h.uc.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.MessageResponse{Message: "received"})
}
