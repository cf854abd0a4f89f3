package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/sqlitetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, db *gorm.DB, id string, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&models.ProductModel{
		ID:           id,
		Name:         "Product " + id,
		Price:        decimal.RequireFromString("2.00"),
		AvailableQty: qty,
		MinOrderQty:  1,
	}).Error)
}

func availableQty(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p models.ProductModel
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.AvailableQty
}

func newPending(txID, userID string, createdAt time.Time, items ...*domain.LineItem) *domain.Transaction {
	return &domain.Transaction{
		TransactionID: txID,
		UserID:        userID,
		Status:        domain.StatusPending,
		CreatedAt:     createdAt,
		LineItems:     items,
	}
}

func TestInventory_TryDecrementIsConditional(t *testing.T) {
	db := sqlitetest.Open(t)
	seedProduct(t, db, "P", 10)
	repo := NewDefaultInventoryRepository(db)
	ctx := context.Background()

	ok, err := repo.TryDecrement(ctx, "P", 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryDecrement(ctx, "P", 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, availableQty(t, db, "P"))

	require.NoError(t, repo.Increment(ctx, "P", 7))
	assert.Equal(t, 10, availableQty(t, db, "P"))

	require.ErrorIs(t, repo.Increment(ctx, "missing", 1), domain.ErrProductNotFound)
	_, err = repo.TryDecrement(ctx, "P", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestInventory_TryDecrementUnderContention(t *testing.T) {
	const workers = 12
	db := sqlitetest.OpenShared(t, workers)
	seedProduct(t, db, "P", 10)
	repo := NewDefaultInventoryRepository(db)

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		succeeded atomic.Int32
		errs      = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.TryDecrement(context.Background(), "P", 3)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				succeeded.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), succeeded.Load())
	assert.Equal(t, 1, availableQty(t, db, "P"))
}

func TestInventory_GetProduct(t *testing.T) {
	db := sqlitetest.Open(t)
	require.NoError(t, db.Create(&models.ProductModel{
		ID:              "P",
		Name:            "Durian",
		Price:           decimal.RequireFromString("10.00"),
		DiscountedPrice: decimal.RequireFromString("8.50"),
		PromoActive:     true,
		AvailableQty:    4,
		MinOrderQty:     2,
	}).Error)

	p, err := NewDefaultInventoryRepository(db).GetProduct(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, "Durian", p.Name)
	assert.True(t, decimal.RequireFromString("8.5").Equal(p.EffectivePrice()))
	assert.Equal(t, 2, p.MinOrderQty)

	_, err = NewDefaultInventoryRepository(db).GetProduct(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestTransactions_OnePendingPerUser(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	first := newPending("tx-1", "u1", t0)
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.RowID)

	err := repo.Create(ctx, newPending("tx-2", "u1", t0))
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyPending)

	require.NoError(t, repo.Create(ctx, newPending("tx-3", "u2", t0)))

	moved, err := repo.CompareAndSetStatus(ctx, first.RowID, domain.StatusPending, domain.StatusFailed)
	require.NoError(t, err)
	require.True(t, moved)

	require.NoError(t, repo.Create(ctx, newPending("tx-4", "u1", t0)))
}

func TestTransactions_CompareAndSetStatusOnlyOnce(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	tx := newPending("tx-1", "u1", t0)
	require.NoError(t, repo.Create(ctx, tx))

	moved, err := repo.CompareAndSetStatus(ctx, tx.RowID, domain.StatusPending, domain.StatusApproved)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.CompareAndSetStatus(ctx, tx.RowID, domain.StatusPending, domain.StatusFailed)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestTransactions_CreateWithLineItemsAndLoad(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	tx := newPending("tx-1", "u1", t0,
		&domain.LineItem{ProductID: "A", Quantity: 3, UnitPrice: decimal.RequireFromString("2.00"), Status: domain.LineItemReserved},
		&domain.LineItem{ProductID: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("4.50"), Status: domain.LineItemReserved},
	)
	require.NoError(t, repo.Create(ctx, tx))
	require.NotZero(t, tx.LineItems[0].ID)

	delivery := &domain.DeliveryRecord{
		RecipientName: "Aina",
		ContactNumber: "0123",
		Address:       "Kebun 1",
		Postcode:      "530123",
		Fee:           decimal.RequireFromString("5.00"),
		Status:        domain.DeliveryAwaitingPayment,
	}
	require.NoError(t, repo.AttachDelivery(ctx, tx.RowID, delivery))
	require.NotZero(t, delivery.ID)

	session := &domain.PaymentSession{
		SessionID:   "cs_1",
		CheckoutURL: "https://pay.example/cs_1",
		Amount:      decimal.RequireFromString("15.50"),
		Currency:    "myr",
	}
	require.NoError(t, repo.AttachPaymentSession(ctx, tx.RowID, session))

	loaded, err := repo.GetByTransactionIDAndUser(ctx, "tx-1", "u1")
	require.NoError(t, err)
	require.Len(t, loaded.LineItems, 2)
	assert.True(t, decimal.RequireFromString("10.50").Equal(domain.ItemsTotal(loaded.LineItems)))
	require.NotNil(t, loaded.Delivery)
	assert.Equal(t, "Aina", loaded.Delivery.RecipientName)
	require.NotNil(t, loaded.Payment)
	assert.Equal(t, "https://pay.example/cs_1", loaded.Payment.CheckoutURL)
	assert.True(t, loaded.HasPaymentSession())

	_, err = repo.GetByTransactionIDAndUser(ctx, "tx-1", "someone-else")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactions_LineItemStatusTransition(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	tx := newPending("tx-1", "u1", t0,
		&domain.LineItem{ProductID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(1), Status: domain.LineItemReserved},
		&domain.LineItem{ProductID: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(1), Status: domain.LineItemReserved},
	)
	require.NoError(t, repo.Create(ctx, tx))

	n, err := repo.UpdateLineItemsStatus(ctx, tx.RowID, domain.LineItemReserved, domain.LineItemInvalid)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.UpdateLineItemsStatus(ctx, tx.RowID, domain.LineItemReserved, domain.LineItemInvalid)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestTransactions_FindStalePending(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	old := newPending("old", "u1", t0.Add(-time.Hour))
	fresh := newPending("fresh", "u2", t0)
	paying := newPending("paying", "u3", t0.Add(-time.Hour))
	for _, tx := range []*domain.Transaction{old, fresh, paying} {
		require.NoError(t, repo.Create(ctx, tx))
	}
	require.NoError(t, repo.AttachPaymentSession(ctx, paying.RowID, &domain.PaymentSession{
		SessionID: "cs_pay", CheckoutURL: "u", Amount: decimal.NewFromInt(1), Currency: "myr",
	}))

	stale, err := repo.FindStalePending(ctx, t0.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "old", stale[0].TransactionID)
	assert.Equal(t, "paying", stale[1].TransactionID)
	require.NotNil(t, stale[1].PaymentSessionID)
	assert.Equal(t, "cs_pay", *stale[1].PaymentSessionID)
}

func TestTransactions_DeliveryStatusByTracking(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultTransactionRepository(db)
	ctx := context.Background()

	tx := newPending("tx-1", "u1", t0)
	require.NoError(t, repo.Create(ctx, tx))
	delivery := &domain.DeliveryRecord{
		RecipientName: "A", ContactNumber: "1", Address: "x",
		Fee: decimal.NewFromInt(5), Status: domain.DeliveryAwaitingPayment,
	}
	require.NoError(t, repo.AttachDelivery(ctx, tx.RowID, delivery))

	tracking := "TRK1"
	delivery.TrackingNumber = &tracking
	delivery.Status = domain.DeliveryProcessing
	require.NoError(t, repo.UpdateDelivery(ctx, delivery))

	require.NoError(t, repo.UpdateDeliveryStatusByTracking(ctx, "TRK1", "DELIVERED"))
	got, err := repo.GetDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatus("DELIVERED"), got.Status)

	require.ErrorIs(t, repo.UpdateDeliveryStatusByTracking(ctx, "nope", "DELIVERED"), domain.ErrDeliveryNotFound)
}

func TestWebhookEvents_MarkProcessedOnce(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewDefaultWebhookEventRepository(db)
	ctx := context.Background()

	fresh, err := repo.MarkProcessed(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.MarkProcessed(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestCarts_ClearCart(t *testing.T) {
	db := sqlitetest.Open(t)
	require.NoError(t, db.Create(&[]models.CartItemModel{
		{UserID: "u1", ProductID: "A", Quantity: 1},
		{UserID: "u1", ProductID: "B", Quantity: 2},
		{UserID: "u2", ProductID: "A", Quantity: 3},
	}).Error)
	repo := NewDefaultCartRepository(db)
	ctx := context.Background()

	items, err := repo.GetCartItems(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[1].Quantity)

	require.NoError(t, repo.ClearCart(ctx, "u1"))
	items, err = repo.GetCartItems(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repo.GetCartItems(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := sqlitetest.Open(t)
	seedProduct(t, db, "P", 10)
	uow := NewGormUnitOfWork(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := uow.Atomic(ctx, func(repos domain.Repositories) error {
		ok, err := repos.Inventory().TryDecrement(ctx, "P", 4)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repos.Transactions().Create(ctx, newPending("tx-1", "u1", t0)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 10, availableQty(t, db, "P"))
	exists, err := uow.Transactions().ExistsByTransactionID(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
