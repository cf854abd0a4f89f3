package setup

import (
	"github.com/LavaJover/agromarket-checkout-service/internal/app/background"
	publisher "github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/kafka"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/redisx"
)

func InitializeBackground(deps *Dependencies, ucs *Usecases) *background.BackgroundTasks {
	cfg := deps.Config
	interval := cfg.Checkout.TransactionTTL()

	var lock background.Locker
	if deps.Redis != nil {
		lock = redisx.NewLock(deps.Redis, redisx.KeyReaperLock, interval)
	}

	var consumer background.Runner
	if deps.Subscriber != nil {
		consumer = publisher.NewDeliveryStatusConsumer(
			deps.Subscriber,
			ucs.Checkout,
			cfg.KafkaService.DeliveryStatusTopic,
			cfg.KafkaService.GroupID,
			deps.Logger.Named("delivery-status"),
		)
	}

	return background.NewBackgroundTasks(ucs.Checkout, lock, consumer, interval, deps.Logger.Named("background"))
}
