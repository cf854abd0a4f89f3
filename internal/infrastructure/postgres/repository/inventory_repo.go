package repository

import (
	"context"
	"errors"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultInventoryRepository struct {
	db *gorm.DB
}

func NewDefaultInventoryRepository(db *gorm.DB) *DefaultInventoryRepository {
	return &DefaultInventoryRepository{db: db}
}

func (r *DefaultInventoryRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return mappers.ToDomainProduct(&model), nil
}

// TryDecrement is a single conditional UPDATE, so two concurrent callers can
// never both take the last units.
func (r *DefaultInventoryRepository) TryDecrement(ctx context.Context, productID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND available_qty >= ?", productID, qty).
		Update("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultInventoryRepository) Increment(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Update("available_qty", gorm.Expr("available_qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
