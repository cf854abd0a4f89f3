package setup

import (
	"fmt"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/delivery"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/metrics"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/stripe"
	"github.com/LavaJover/agromarket-checkout-service/internal/usecase/checkout"
)

type Usecases struct {
	Checkout *checkout.DefaultCheckoutUsecase
}

func InitializeUsecases(deps *Dependencies) (*Usecases, error) {
	cfg := deps.Config

	fees, err := delivery.NewFlatFeeProvider(cfg.Delivery.FlatFee)
	if err != nil {
		return nil, err
	}

	var dispatcher domain.DeliveryDispatcher
	if cfg.Delivery.CourierURL != "" {
		dispatcher = delivery.NewCourierClient(cfg.Delivery.CourierURL, cfg.Delivery.Timeout)
	} else {
		local, err := delivery.NewLocalDispatcher()
		if err != nil {
			return nil, fmt.Errorf("local dispatcher: %w", err)
		}
		dispatcher = local
	}

	uc := checkout.NewDefaultCheckoutUsecase(
		repository.NewGormUnitOfWork(deps.DB),
		stripe.NewGateway(cfg.Stripe),
		fees,
		dispatcher,
		checkout.Settings{
			TransactionTTL: cfg.Checkout.TransactionTTL(),
			Currency:       cfg.Stripe.Currency,
			SuccessURL:     cfg.Stripe.SuccessURL,
			CancelURL:      cfg.Stripe.CancelURL,
		},
		checkout.WithPublisher(deps.Publisher),
		checkout.WithMetrics(metrics.NewCheckoutMetrics(deps.Registry)),
		checkout.WithLogger(deps.Logger.Named("checkout")),
	)

	return &Usecases{Checkout: uc}, nil
}
