package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatFeeProvider(t *testing.T) {
	p, err := NewFlatFeeProvider("5.00")
	require.NoError(t, err)

	fee, err := p.GetDeliveryFee(context.Background(), "123456")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5").Equal(fee))

	_, err = NewFlatFeeProvider("abc")
	require.Error(t, err)
	_, err = NewFlatFeeProvider("-1")
	require.Error(t, err)
}

func TestLocalDispatcher_IssuesDistinctNumbers(t *testing.T) {
	d, err := NewLocalDispatcher()
	require.NoError(t, err)

	a, err := d.CreateDeliveryOrder(context.Background(), &domain.DeliveryRecord{})
	require.NoError(t, err)
	b, err := d.CreateDeliveryOrder(context.Background(), &domain.DeliveryRecord{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "AGM"))
	assert.Len(t, a, 15)
	assert.NotEqual(t, a, b)
}

func TestCourierClient_CreateDeliveryOrder(t *testing.T) {
	var got courierOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracking_number":"MY123"}`))
	}))
	defer srv.Close()

	c := NewCourierClient(srv.URL, time.Second)
	tracking, err := c.CreateDeliveryOrder(context.Background(), &domain.DeliveryRecord{
		RecipientName: "Aina",
		ContactNumber: "0123456789",
		Address:       "Lot 5, Jalan Tani",
		Postcode:      "43000",
	})
	require.NoError(t, err)
	assert.Equal(t, "MY123", tracking)
	assert.Equal(t, "Aina", got.RecipientName)
	assert.Equal(t, "43000", got.Postcode)
}

func TestCourierClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no riders", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCourierClient(srv.URL, time.Second)
	_, err := c.CreateDeliveryOrder(context.Background(), &domain.DeliveryRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
