package repository

import (
	"context"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultCartRepository struct {
	db *gorm.DB
}

func NewDefaultCartRepository(db *gorm.DB) *DefaultCartRepository {
	return &DefaultCartRepository{db: db}
}

func (r *DefaultCartRepository) GetCartItems(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	var itemModels []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]*domain.CartItem, len(itemModels))
	for i := range itemModels {
		items[i] = mappers.ToDomainCartItem(&itemModels[i])
	}
	return items, nil
}

func (r *DefaultCartRepository) ClearCart(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItemModel{}).Error
}
