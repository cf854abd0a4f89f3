package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/LavaJover/agromarket-checkout-service/internal/infrastructure/postgres/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDuplicatePending stores two reserved PENDING rows for one user, which
// the schema normally refuses, and leaves the stock they hold reserved.
func seedDuplicatePending(t *testing.T, h *harness, ids ...string) {
	t.Helper()
	require.NoError(t, h.db.Exec("DROP INDEX idx_one_pending_per_user").Error)

	h.seedProduct(t, "P", "2.00", 10, 1)
	for _, id := range ids {
		require.NoError(t, h.uc.uow.Transactions().Create(context.Background(), &domain.Transaction{
			TransactionID: id,
			UserID:        buyer.ID,
			Status:        domain.StatusPending,
			CreatedAt:     startTime,
			LineItems: []*domain.LineItem{{
				ProductID: "P",
				Quantity:  3,
				UnitPrice: decimal.RequireFromString("2.00"),
				Status:    domain.LineItemReserved,
			}},
		}))
	}
	require.NoError(t, h.db.Model(&models.ProductModel{}).Where("id = ?", "P").
		Update("available_qty", 10-3*len(ids)).Error)
}

func TestProceedToPayment_CollidingRowsAreFailed(t *testing.T) {
	h := newHarness(t)
	seedDuplicatePending(t, h, "shared-id", "shared-id")
	assert.Equal(t, 4, h.availableQty(t, "P"))

	_, err := h.uc.ProceedToPayment(context.Background(), buyer, "shared-id", validDetails)
	require.ErrorIs(t, err, domain.ErrTransactionCollision)

	rows := h.rows(t, "shared-id")
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, domain.StatusFailed, row.Status)
		assert.Equal(t, domain.LineItemInvalid, row.LineItems[0].Status)
	}
	assert.Equal(t, 10, h.availableQty(t, "P"))
	assert.Empty(t, h.gateway.requests)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.TransactionsTotal.WithLabelValues(string(domain.StatusFailed), reasonCollision)))
	assert.Eventually(t, func() bool { return h.publisher.has(domain.CheckoutFailed, "shared-id") }, time.Second, 10*time.Millisecond)
}

func TestGetPendingTransactionID_MultiplePendingRowsAreFailed(t *testing.T) {
	h := newHarness(t)
	seedDuplicatePending(t, h, "first-id", "second-id")

	_, err := h.uc.GetPendingTransactionID(context.Background(), buyer)
	require.ErrorIs(t, err, domain.ErrTransactionCollision)

	assert.Equal(t, domain.StatusFailed, h.status(t, "first-id"))
	assert.Equal(t, domain.StatusFailed, h.status(t, "second-id"))
	assert.Equal(t, 10, h.availableQty(t, "P"))

	_, err = h.uc.GetPendingTransactionID(context.Background(), buyer)
	require.ErrorIs(t, err, domain.ErrNoPendingTransaction)
}
