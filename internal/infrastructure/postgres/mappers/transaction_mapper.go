package mappers

import (
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
)

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	tx := &domain.Transaction{
		RowID:            model.ID,
		TransactionID:    model.TransactionID,
		UserID:           model.UserID,
		Status:           model.Status,
		DeliveryID:       model.DeliveryID,
		PaymentSessionID: model.PaymentSessionID,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if len(model.LineItems) > 0 {
		tx.LineItems = make([]*domain.LineItem, len(model.LineItems))
		for i := range model.LineItems {
			tx.LineItems[i] = ToDomainLineItem(&model.LineItems[i])
		}
	}
	if model.Delivery != nil {
		tx.Delivery = ToDomainDeliveryRecord(model.Delivery)
	}
	if model.Payment != nil {
		tx.Payment = ToDomainPaymentSession(model.Payment)
	}
	return tx
}

// ToGORMTransaction maps the row and its line items. Delivery and payment
// are attached separately.
func ToGORMTransaction(tx *domain.Transaction) *models.TransactionModel {
	model := &models.TransactionModel{
		ID:               tx.RowID,
		TransactionID:    tx.TransactionID,
		UserID:           tx.UserID,
		Status:           tx.Status,
		DeliveryID:       tx.DeliveryID,
		PaymentSessionID: tx.PaymentSessionID,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
	if len(tx.LineItems) > 0 {
		model.LineItems = make([]models.LineItemModel, len(tx.LineItems))
		for i, li := range tx.LineItems {
			model.LineItems[i] = *ToGORMLineItem(li)
		}
	}
	return model
}

func ToDomainLineItem(model *models.LineItemModel) *domain.LineItem {
	return &domain.LineItem{
		ID:               model.ID,
		TransactionRowID: model.TransactionRowID,
		ProductID:        model.ProductID,
		Quantity:         model.Quantity,
		UnitPrice:        model.UnitPrice,
		Status:           model.Status,
	}
}

func ToGORMLineItem(li *domain.LineItem) *models.LineItemModel {
	return &models.LineItemModel{
		ID:               li.ID,
		TransactionRowID: li.TransactionRowID,
		ProductID:        li.ProductID,
		Quantity:         li.Quantity,
		UnitPrice:        li.UnitPrice,
		Status:           li.Status,
	}
}
