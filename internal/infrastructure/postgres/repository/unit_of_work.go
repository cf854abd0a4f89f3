package repository

import (
	"context"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"gorm.io/gorm"
)

type gormRepositories struct {
	transactions  *DefaultTransactionRepository
	inventory     *DefaultInventoryRepository
	carts         *DefaultCartRepository
	webhookEvents *DefaultWebhookEventRepository
}

func newGormRepositories(db *gorm.DB) *gormRepositories {
	return &gormRepositories{
		transactions:  NewDefaultTransactionRepository(db),
		inventory:     NewDefaultInventoryRepository(db),
		carts:         NewDefaultCartRepository(db),
		webhookEvents: NewDefaultWebhookEventRepository(db),
	}
}

func (r *gormRepositories) Transactions() domain.TransactionRepository {
	return r.transactions
}

func (r *gormRepositories) Inventory() domain.InventoryRepository {
	return r.inventory
}

func (r *gormRepositories) Carts() domain.CartRepository {
	return r.carts
}

func (r *gormRepositories) WebhookEvents() domain.WebhookEventRepository {
	return r.webhookEvents
}

// GormUnitOfWork hands repositories bound to a single *gorm.DB transaction
// to the callback. Outside Atomic the repositories run in autocommit mode.
type GormUnitOfWork struct {
	*gormRepositories
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{
		gormRepositories: newGormRepositories(db),
		db:               db,
	}
}

func (u *GormUnitOfWork) Atomic(ctx context.Context, fn func(repos domain.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepositories(tx))
	})
}
