package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/config"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/logger"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&models.ProductModel{},
		&models.CartItemModel{},
		&models.DeliveryRecordModel{},
		&models.PaymentSessionModel{},
		&models.TransactionModel{},
		&models.LineItemModel{},
		&models.WebhookEventModel{},
		&logger.CheckoutEventRecord{},
	}
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}
}

// InitDB opens the database. Without a migrations path the schema is created
// with AutoMigrate.
func InitDB(cfg config.CheckoutDB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Dsn), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.MigrationsPath == "" {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}
	return db, nil
}

func MustInitDB(cfg config.CheckoutDB) *gorm.DB {
	db, err := InitDB(cfg)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return db
}
