package mappers

import (
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
)

func ToDomainProduct(model *models.ProductModel) *domain.Product {
	return &domain.Product{
		ID:              model.ID,
		Name:            model.Name,
		Price:           model.Price,
		DiscountedPrice: model.DiscountedPrice,
		PromoActive:     model.PromoActive,
		AvailableQty:    model.AvailableQty,
		MinOrderQty:     model.MinOrderQty,
	}
}

func ToDomainCartItem(model *models.CartItemModel) *domain.CartItem {
	return &domain.CartItem{
		UserID:    model.UserID,
		ProductID: model.ProductID,
		Quantity:  model.Quantity,
	}
}
