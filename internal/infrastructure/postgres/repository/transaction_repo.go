package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultTransactionRepository struct {
	db *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{db: db}
}

func (r *DefaultTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	model := mappers.ToGORMTransaction(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrTransactionAlreadyPending
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	tx.RowID = model.ID
	tx.CreatedAt = model.CreatedAt
	tx.UpdatedAt = model.UpdatedAt
	for i := range model.LineItems {
		tx.LineItems[i].ID = model.LineItems[i].ID
		tx.LineItems[i].TransactionRowID = model.ID
	}
	return nil
}

func (r *DefaultTransactionRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByTransactionIDAndUser returns the newest row for the pair with its
// line items, delivery and payment session loaded.
func (r *DefaultTransactionRepository) GetByTransactionIDAndUser(ctx context.Context, transactionID, userID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("Delivery").
		Preload("Payment").
		Where("transaction_id = ? AND user_id = ?", transactionID, userID).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultTransactionRepository) FindPendingByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return r.findPending(ctx, "user_id = ?", userID)
}

func (r *DefaultTransactionRepository) FindPendingByTransactionID(ctx context.Context, transactionID string) ([]*domain.Transaction, error) {
	return r.findPending(ctx, "transaction_id = ?", transactionID)
}

func (r *DefaultTransactionRepository) FindPendingByTransactionIDAndUser(ctx context.Context, transactionID, userID string) ([]*domain.Transaction, error) {
	return r.findPending(ctx, "transaction_id = ? AND user_id = ?", transactionID, userID)
}

func (r *DefaultTransactionRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]*domain.Transaction, error) {
	return r.findPending(ctx, "created_at <= ?", createdBefore)
}

func (r *DefaultTransactionRepository) findPending(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", domain.StatusPending).
		Where(query, args...).
		Order("id").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	txs := make([]*domain.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = mappers.ToDomainTransaction(&txModels[i])
	}
	return txs, nil
}

func (r *DefaultTransactionRepository) CompareAndSetStatus(ctx context.Context, rowID uint, from, to domain.TransactionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", rowID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultTransactionRepository) GetLineItems(ctx context.Context, rowID uint) ([]*domain.LineItem, error) {
	var itemModels []models.LineItemModel
	if err := r.db.WithContext(ctx).
		Where("transaction_row_id = ?", rowID).
		Order("id").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]*domain.LineItem, len(itemModels))
	for i := range itemModels {
		items[i] = mappers.ToDomainLineItem(&itemModels[i])
	}
	return items, nil
}

func (r *DefaultTransactionRepository) UpdateLineItemsStatus(ctx context.Context, rowID uint, from, to domain.LineItemStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.LineItemModel{}).
		Where("transaction_row_id = ? AND status = ?", rowID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *DefaultTransactionRepository) AttachDelivery(ctx context.Context, rowID uint, delivery *domain.DeliveryRecord) error {
	model := mappers.ToGORMDeliveryRecord(delivery)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return fmt.Errorf("create delivery record: %w", err)
	}
	if err := db.Model(&models.TransactionModel{}).
		Where("id = ?", rowID).
		Update("delivery_id", model.ID).Error; err != nil {
		return fmt.Errorf("link delivery record: %w", err)
	}
	delivery.ID = model.ID
	delivery.CreatedAt = model.CreatedAt
	delivery.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *DefaultTransactionRepository) GetDelivery(ctx context.Context, deliveryID uint) (*domain.DeliveryRecord, error) {
	var model models.DeliveryRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", deliveryID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return mappers.ToDomainDeliveryRecord(&model), nil
}

func (r *DefaultTransactionRepository) UpdateDelivery(ctx context.Context, delivery *domain.DeliveryRecord) error {
	return r.db.WithContext(ctx).Model(&models.DeliveryRecordModel{}).
		Where("id = ?", delivery.ID).
		Updates(map[string]any{
			"status":          delivery.Status,
			"tracking_number": delivery.TrackingNumber,
			"fee":             delivery.Fee,
		}).Error
}

func (r *DefaultTransactionRepository) UpdateDeliveryStatusByTracking(ctx context.Context, trackingNumber string, status domain.DeliveryStatus) error {
	res := r.db.WithContext(ctx).Model(&models.DeliveryRecordModel{}).
		Where("tracking_number = ?", trackingNumber).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func (r *DefaultTransactionRepository) AttachPaymentSession(ctx context.Context, rowID uint, session *domain.PaymentSession) error {
	model := mappers.ToGORMPaymentSession(session)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return fmt.Errorf("create payment session: %w", err)
	}
	if err := db.Model(&models.TransactionModel{}).
		Where("id = ?", rowID).
		Update("payment_session_id", model.SessionID).Error; err != nil {
		return fmt.Errorf("link payment session: %w", err)
	}
	session.ID = model.ID
	session.CreatedAt = model.CreatedAt
	return nil
}

func (r *DefaultTransactionRepository) GetPaymentSession(ctx context.Context, sessionID string) (*domain.PaymentSession, error) {
	var model models.PaymentSessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainPaymentSession(&model), nil
}

func (r *DefaultTransactionRepository) UpdatePaymentSession(ctx context.Context, session *domain.PaymentSession) error {
	model := mappers.ToGORMPaymentSession(session)
	return r.db.WithContext(ctx).Model(&models.PaymentSessionModel{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]any{
			"paid_at":    model.PaidAt,
			"card_brand": model.CardBrand,
			"card_last4": model.CardLast4,
			"metadata":   model.Metadata,
		}).Error
}
