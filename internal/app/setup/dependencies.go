package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/config"
	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	publisher "github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/kafka"
	eventlog "github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/logger"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/migrate"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/redisx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config     *config.CheckoutConfig
	Logger     *zap.Logger
	DB         *gorm.DB
	Registry   *prometheus.Registry
	Publisher  domain.CheckoutEventPublisher
	Subscriber domain.SubscriberPort
	Redis      *redis.Client

	closers []func() error
}

func InitializeDependencies(cfg *config.CheckoutConfig, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	db, err := postgres.InitDB(cfg.CheckoutDB)
	if err != nil {
		return nil, err
	}
	deps.DB = db
	if sqlDB, err := db.DB(); err == nil {
		deps.closers = append(deps.closers, sqlDB.Close)
	}

	if cfg.CheckoutDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.CheckoutDB.MigrationsPath, logger); err != nil {
			deps.Close()
			return nil, err
		}
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.KafkaService.Enabled() {
		brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
		pub := publisher.NewDefaultKafkaPublisher(brokers, cfg.KafkaService.CheckoutEventsTopic)
		deps.closers = append(deps.closers, pub.Close)
		deps.Publisher = pub
		deps.Subscriber = publisher.NewDefaultKafkaSubscriber(brokers)
		logger.Info("checkout events go to kafka", zap.Strings("brokers", brokers))
	} else {
		deps.Publisher = eventlog.NewPGCheckoutEventLogger(db)
		logger.Info("kafka not configured, checkout events go to the checkout_events table")
	}

	if cfg.Redis.Addr != "" {
		rdb := redisx.New(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisx.Ping(ctx, rdb); err != nil {
			_ = rdb.Close()
			deps.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.Redis = rdb
		deps.closers = append(deps.closers, rdb.Close)
	}

	return deps, nil
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Warn("close failed", zap.Error(err))
		}
	}
	d.closers = nil
}
