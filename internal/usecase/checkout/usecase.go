package checkout

import (
	"context"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultMaxIDAttempts = 5

type CheckoutUsecase interface {
	Lock(ctx context.Context, principal domain.Principal) (string, error)
	ProceedToPayment(ctx context.Context, principal domain.Principal, transactionID string, details domain.DeliveryDetails) (string, error)
	GetPendingTransactionID(ctx context.Context, principal domain.Principal) (string, error)
	CancelCheckout(ctx context.Context, principal domain.Principal) error
	GetDeliveryFee(ctx context.Context, postcode string) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
	ExpireStaleTransactions(ctx context.Context) (int, error)
	UpdateDeliveryStatus(ctx context.Context, trackingNumber string, status domain.DeliveryStatus) error
}

type Settings struct {
	TransactionTTL time.Duration
	Currency       string
	SuccessURL     string
	CancelURL      string
	MaxIDAttempts  int
}

type DefaultCheckoutUsecase struct {
	uow        domain.UnitOfWork
	gateway    domain.PaymentGateway
	fees       domain.DeliveryFeeProvider
	dispatcher domain.DeliveryDispatcher
	publisher  domain.CheckoutEventPublisher
	metrics    *metrics.CheckoutMetrics
	logger     *zap.Logger
	tracer     trace.Tracer
	settings   Settings
	now        func() time.Time
	newID      func() string
}

type Option func(*DefaultCheckoutUsecase)

func WithClock(now func() time.Time) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.newID = newID }
}

func WithPublisher(publisher domain.CheckoutEventPublisher) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.publisher = publisher }
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(uc *DefaultCheckoutUsecase) { uc.tracer = tracer }
}

func NewDefaultCheckoutUsecase(
	uow domain.UnitOfWork,
	gateway domain.PaymentGateway,
	fees domain.DeliveryFeeProvider,
	dispatcher domain.DeliveryDispatcher,
	settings Settings,
	opts ...Option,
) *DefaultCheckoutUsecase {
	if settings.MaxIDAttempts <= 0 {
		settings.MaxIDAttempts = DefaultMaxIDAttempts
	}
	uc := &DefaultCheckoutUsecase{
		uow:        uow,
		gateway:    gateway,
		fees:       fees,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("github.com/LavaJover/agromarket-checkout-service/internal/usecase/checkout"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *DefaultCheckoutUsecase) clock() time.Time {
	return uc.now().UTC()
}

func (uc *DefaultCheckoutUsecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return uc.tracer.Start(ctx, "checkout."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireCheckoutRole(principal domain.Principal) error {
	if principal.ID == "" {
		return domain.ErrUnauthorized
	}
	if !principal.CanCheckout() {
		return domain.ErrForbidden
	}
	return nil
}
