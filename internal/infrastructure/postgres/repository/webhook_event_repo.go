package repository

import (
	"context"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultWebhookEventRepository struct {
	db *gorm.DB
}

func NewDefaultWebhookEventRepository(db *gorm.DB) *DefaultWebhookEventRepository {
	return &DefaultWebhookEventRepository{db: db}
}

func (r *DefaultWebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WebhookEventModel{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
