package mappers

import (
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainPaymentSession(model *models.PaymentSessionModel) *domain.PaymentSession {
	return &domain.PaymentSession{
		ID:          model.ID,
		SessionID:   model.SessionID,
		CheckoutURL: model.CheckoutURL,
		Amount:      model.Amount,
		Currency:    model.Currency,
		PaidAt:      model.PaidAt,
		CardBrand:   model.CardBrand,
		CardLast4:   model.CardLast4,
		Metadata:    []byte(model.Metadata),
		CreatedAt:   model.CreatedAt,
	}
}

func ToGORMPaymentSession(session *domain.PaymentSession) *models.PaymentSessionModel {
	var metadata datatypes.JSON
	if len(session.Metadata) > 0 {
		metadata = datatypes.JSON(session.Metadata)
	}
	return &models.PaymentSessionModel{
		ID:          session.ID,
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
		Amount:      session.Amount,
		Currency:    session.Currency,
		PaidAt:      session.PaidAt,
		CardBrand:   session.CardBrand,
		CardLast4:   session.CardLast4,
		Metadata:    metadata,
		CreatedAt:   session.CreatedAt,
	}
}
