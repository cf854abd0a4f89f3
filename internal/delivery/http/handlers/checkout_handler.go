package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/dto/checkout/request"
	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/dto/checkout/response"
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/usecase/checkout"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	uc     checkout.CheckoutUsecase
	logger *zap.Logger
}

func NewCheckoutHandler(uc checkout.CheckoutUsecase, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		uc:     uc,
		logger: logger,
	}
}

func (h *CheckoutHandler) Register(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/getDeliveryFee/{postcode}", h.getDeliveryFee)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/lockQty", h.lockQty)
			r.Post("/proceedToPayment", h.proceedToPayment)
			r.Get("/getTransactionID", h.getTransactionID)
			r.Get("/cancelCheckoutSession", h.cancelCheckoutSession)
			r.Get("/transactions/{transactionID}", h.getTransaction)
		})
	})
}

func (h *CheckoutHandler) lockQty(w http.ResponseWriter, r *http.Request) {
	txID, err := h.uc.Lock(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.TransactionIDResponse{TransactionID: txID})
}

func (h *CheckoutHandler) proceedToPayment(w http.ResponseWriter, r *http.Request) {
	var req request.ProceedToPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response.ErrorResponse{Code: "INVALID_JSON", Error: "invalid json"})
		return
	}

	url, err := h.uc.ProceedToPayment(r.Context(), PrincipalFrom(r.Context()), req.TransactionID, domain.DeliveryDetails{
		RecipientName: req.DeliveryDetails.RecipientName,
		ContactNumber: req.DeliveryDetails.ContactNumber,
		Address:       req.DeliveryDetails.Address,
		Postcode:      req.DeliveryDetails.Postcode,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.ProceedToPaymentResponse{URL: url})
}

func (h *CheckoutHandler) getTransactionID(w http.ResponseWriter, r *http.Request) {
	txID, err := h.uc.GetPendingTransactionID(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.TransactionIDResponse{TransactionID: txID})
}

func (h *CheckoutHandler) cancelCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.CancelCheckout(r.Context(), PrincipalFrom(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.MessageResponse{Message: "checkout cancelled"})
}

func (h *CheckoutHandler) getDeliveryFee(w http.ResponseWriter, r *http.Request) {
	postcode := chi.URLParam(r, "postcode")
	fee, err := h.uc.GetDeliveryFee(r.Context(), postcode)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.DeliveryFeeResponse{Postcode: postcode, Fee: fee.StringFixed(2)})
}

func (h *CheckoutHandler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.uc.GetTransaction(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromTransaction(tx))
}
