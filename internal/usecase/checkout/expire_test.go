package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireStaleTransactions(t *testing.T) {
	h := newHarness(t)
	h.seedProduct(t, "P", "2.00", 20, 1)
	h.addToCart(t, "stale", "P", 4)
	h.addToCart(t, "paying", "P", 3)
	h.addToCart(t, "fresh", "P", 2)
	ctx := context.Background()

	stale, err := h.uc.Lock(ctx, domain.Principal{ID: "stale", Role: domain.RoleUser})
	require.NoError(t, err)
	paying, _ := h.lockAndProceed(t, domain.Principal{ID: "paying", Role: domain.RoleUser})

	h.clock.Advance(10 * time.Minute)
	fresh, err := h.uc.Lock(ctx, domain.Principal{ID: "fresh", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, 11, h.availableQty(t, "P"))

	h.clock.Advance(5 * time.Minute)
	n, err := h.uc.ExpireStaleTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.StatusFailed, h.status(t, stale))
	assert.Equal(t, domain.StatusFailed, h.status(t, paying))
	assert.Equal(t, []string{"cs_test_1"}, h.gateway.expiredSessions())
	assert.Equal(t, domain.StatusPending, h.status(t, fresh))
	assert.Equal(t, 18, h.availableQty(t, "P"))

	n, err = h.uc.ExpireStaleTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 18, h.availableQty(t, "P"))

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ReaperExpiredTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ReaperSweepsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.TransactionsTotal.WithLabelValues(string(domain.StatusFailed), reasonTimeout)))
	assert.Eventually(t, func() bool { return h.publisher.has(domain.CheckoutFailed, stale) }, time.Second, 10*time.Millisecond)
}

func TestExpireStaleTransactions_LeavesPaidAndUnreachableSessions(t *testing.T) {
	h := newHarness(t)
	h.seedProduct(t, "P", "2.00", 20, 1)
	h.addToCart(t, "paid", "P", 4)
	h.addToCart(t, "unreachable", "P", 3)
	ctx := context.Background()

	paid, _ := h.lockAndProceed(t, domain.Principal{ID: "paid", Role: domain.RoleUser})
	unreachable, _ := h.lockAndProceed(t, domain.Principal{ID: "unreachable", Role: domain.RoleUser})
	h.gateway.markPaid("cs_test_1")
	h.gateway.failExpire("cs_test_2", fmt.Errorf("%w: connection reset", domain.ErrGateway))

	h.clock.Advance(time.Hour)
	n, err := h.uc.ExpireStaleTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.StatusPending, h.status(t, paid))
	assert.Equal(t, domain.StatusPending, h.status(t, unreachable))
	assert.Equal(t, 13, h.availableQty(t, "P"))

	h.gateway.failExpire("cs_test_2", nil)
	n, err = h.uc.ExpireStaleTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusPending, h.status(t, paid))
	assert.Equal(t, domain.StatusFailed, h.status(t, unreachable))
	assert.Equal(t, 16, h.availableQty(t, "P"))
}
