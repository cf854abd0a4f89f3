package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LavaJover/agromarket-checkout-service/internal/delivery/http/dto/checkout/response"
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrCartEmpty, http.StatusBadRequest, "CART_EMPTY"},
	{domain.ErrTransactionAlreadyPending, http.StatusConflict, "TRANSACTION_ALREADY_PENDING"},
	{domain.ErrCouldNotGenerateID, http.StatusInternalServerError, "COULD_NOT_GENERATE_ID"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrProductNotFound, http.StatusConflict, "PRODUCT_NOT_FOUND"},
	{domain.ErrMissingDeliveryFields, http.StatusBadRequest, "MISSING_DELIVERY_FIELDS"},
	{domain.ErrInvalidPostcode, http.StatusBadRequest, "INVALID_POSTCODE"},
	{domain.ErrTransactionNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	{domain.ErrTransactionCollision, http.StatusConflict, "TRANSACTION_COLLISION"},
	{domain.ErrTransactionExpired, http.StatusGone, "TRANSACTION_EXPIRED"},
	{domain.ErrNoPendingTransaction, http.StatusNotFound, "NO_PENDING_TRANSACTION"},
	{domain.ErrInvalidSignature, http.StatusBadRequest, "INVALID_SIGNATURE"},
	{domain.ErrPaymentCompleted, http.StatusConflict, "PAYMENT_ALREADY_COMPLETED"},
	{domain.ErrGateway, http.StatusBadGateway, "GATEWAY_ERROR"},
	{domain.ErrDeliveryNotFound, http.StatusNotFound, "DELIVERY_NOT_FOUND"},
}

// classify maps a use-case error to its HTTP status and stable code.
func classify(err error) (int, string) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	}
	var moqErr *domain.BelowMinimumOrderError
	if errors.As(err, &moqErr) {
		return http.StatusConflict, "BELOW_MINIMUM_ORDER"
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		msg = "internal error"
	}
	writeJSON(w, status, response.ErrorResponse{Code: code, Error: msg})
}
