package mappers

import (
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
)

func ToDomainDeliveryRecord(model *models.DeliveryRecordModel) *domain.DeliveryRecord {
	return &domain.DeliveryRecord{
		ID:             model.ID,
		RecipientName:  model.RecipientName,
		ContactNumber:  model.ContactNumber,
		Address:        model.Address,
		Postcode:       model.Postcode,
		Fee:            model.Fee,
		Status:         model.Status,
		TrackingNumber: model.TrackingNumber,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func ToGORMDeliveryRecord(delivery *domain.DeliveryRecord) *models.DeliveryRecordModel {
	return &models.DeliveryRecordModel{
		ID:             delivery.ID,
		RecipientName:  delivery.RecipientName,
		ContactNumber:  delivery.ContactNumber,
		Address:        delivery.Address,
		Postcode:       delivery.Postcode,
		Fee:            delivery.Fee,
		Status:         delivery.Status,
		TrackingNumber: delivery.TrackingNumber,
		CreatedAt:      delivery.CreatedAt,
		UpdatedAt:      delivery.UpdatedAt,
	}
}
