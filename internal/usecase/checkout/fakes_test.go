package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/metrics"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/sqlitetest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const validSignature = "t=1,v1=ok"

var (
	buyer  = domain.Principal{ID: "user-1", Role: domain.RoleUser}
	seller = domain.Principal{ID: "seller-1", Role: domain.RoleSeller}

	startTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	validDetails = domain.DeliveryDetails{
		RecipientName: "Siti Aminah",
		ContactNumber: "+60123456789",
		Address:       "Lot 12, Jalan Kebun",
		Postcode:      "530100",
	}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGateway struct {
	mu         sync.Mutex
	seq        int
	requests   []domain.CheckoutSessionRequest
	expired    []string
	expireErrs map[string]error
	createErr  error
}

func (g *fakeGateway) CreateSession(_ context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_test_%d", g.seq)
	return &domain.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (*domain.SessionDetails, error) {
	return &domain.SessionDetails{
		ID:            sessionID,
		Status:        "complete",
		PaymentStatus: "paid",
		CardBrand:     "visa",
		CardLast4:     "4242",
		Raw:           []byte(`{"id":"` + sessionID + `"}`),
	}, nil
}

// ExpireSession records the sessions it closed. Sessions with a configured
// error stay open.
func (g *fakeGateway) ExpireSession(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expireErrs[sessionID]; err != nil {
		return err
	}
	g.expired = append(g.expired, sessionID)
	return nil
}

func (g *fakeGateway) failExpire(sessionID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expireErrs == nil {
		g.expireErrs = map[string]error{}
	}
	g.expireErrs[sessionID] = err
}

// markPaid makes the gateway refuse to expire the session because the
// customer completed it.
func (g *fakeGateway) markPaid(sessionID string) {
	g.failExpire(sessionID, fmt.Errorf("%w: checkout session %s", domain.ErrPaymentCompleted, sessionID))
}

func (g *fakeGateway) expiredSessions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.expired...)
}

type webhookPayload struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	TransactionID string `json:"transaction_id"`
	SessionID     string `json:"session_id"`
}

func (g *fakeGateway) ParseWebhook(payload []byte, signatureHeader string) (*domain.GatewayEvent, error) {
	if signatureHeader != validSignature {
		return nil, fmt.Errorf("%w: signature mismatch", domain.ErrInvalidSignature)
	}
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &domain.GatewayEvent{
		ID:            p.ID,
		Type:          domain.GatewayEventType(p.Type),
		TransactionID: p.TransactionID,
		SessionID:     p.SessionID,
	}, nil
}

func (g *fakeGateway) lastRequest() domain.CheckoutSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type fakeFees struct {
	fee decimal.Decimal
}

func (f fakeFees) GetDeliveryFee(context.Context, string) (decimal.Decimal, error) {
	return f.fee, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	orders []*domain.DeliveryRecord
	err    error
}

func (d *fakeDispatcher) CreateDeliveryOrder(_ context.Context, delivery *domain.DeliveryRecord) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.orders = append(d.orders, delivery)
	return fmt.Sprintf("AGM-TRK-%d", len(d.orders)), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.CheckoutEvent
}

func (p *fakePublisher) PublishCheckoutEvent(_ context.Context, event domain.CheckoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) has(eventType domain.CheckoutEventType, transactionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.Type == eventType && e.TransactionID == transactionID {
			return true
		}
	}
	return false
}

type harness struct {
	db         *gorm.DB
	uc         *DefaultCheckoutUsecase
	gateway    *fakeGateway
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	clock      *fakeClock
	metrics    *metrics.CheckoutMetrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		db:         sqlitetest.Open(t),
		gateway:    &fakeGateway{},
		dispatcher: &fakeDispatcher{},
		publisher:  &fakePublisher{},
		clock:      &fakeClock{now: startTime},
		metrics:    metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
	}
	base := []Option{
		WithClock(h.clock.Now),
		WithPublisher(h.publisher),
		WithMetrics(h.metrics),
		WithLogger(zaptest.NewLogger(t)),
	}
	h.uc = NewDefaultCheckoutUsecase(
		repository.NewGormUnitOfWork(h.db),
		h.gateway,
		fakeFees{fee: decimal.RequireFromString("5.00")},
		h.dispatcher,
		Settings{
			TransactionTTL: 15 * time.Minute,
			Currency:       "myr",
			SuccessURL:     "https://shop.example/success",
			CancelURL:      "https://shop.example/cancel",
		},
		append(base, opts...)...,
	)
	return h
}

func (h *harness) seedProduct(t *testing.T, id, price string, qty, moq int) {
	t.Helper()
	require.NoError(t, h.db.Create(&models.ProductModel{
		ID:           id,
		Name:         "Product " + id,
		Price:        decimal.RequireFromString(price),
		AvailableQty: qty,
		MinOrderQty:  moq,
	}).Error)
}

func (h *harness) addToCart(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	require.NoError(t, h.db.Create(&models.CartItemModel{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}).Error)
}

func (h *harness) availableQty(t *testing.T, productID string) int {
	t.Helper()
	var p models.ProductModel
	require.NoError(t, h.db.First(&p, "id = ?", productID).Error)
	return p.AvailableQty
}

func (h *harness) cartSize(t *testing.T, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&models.CartItemModel{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

// rows returns every stored row for the id, oldest first.
func (h *harness) rows(t *testing.T, transactionID string) []models.TransactionModel {
	t.Helper()
	var rows []models.TransactionModel
	require.NoError(t, h.db.Preload("LineItems").Preload("Delivery").Preload("Payment").
		Where("transaction_id = ?", transactionID).Order("id").Find(&rows).Error)
	return rows
}

func (h *harness) status(t *testing.T, transactionID string) domain.TransactionStatus {
	t.Helper()
	rows := h.rows(t, transactionID)
	require.Len(t, rows, 1)
	return rows[0].Status
}

func (h *harness) webhook(t *testing.T, eventID string, eventType domain.GatewayEventType, transactionID, sessionID string) error {
	t.Helper()
	payload, err := json.Marshal(webhookPayload{
		ID:            eventID,
		Type:          string(eventType),
		TransactionID: transactionID,
		SessionID:     sessionID,
	})
	require.NoError(t, err)
	return h.uc.HandleWebhook(context.Background(), payload, validSignature)
}

// lockAndProceed walks a buyer through reservation and finalization.
func (h *harness) lockAndProceed(t *testing.T, principal domain.Principal) (string, string) {
	t.Helper()
	ctx := context.Background()
	txID, err := h.uc.Lock(ctx, principal)
	require.NoError(t, err)
	url, err := h.uc.ProceedToPayment(ctx, principal, txID, validDetails)
	require.NoError(t, err)
	return txID, url
}

var errBoom = errors.New("boom")
