package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/jaevor/go-nanoid"
)

const trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// LocalDispatcher issues tracking numbers without a courier integration.
type LocalDispatcher struct {
	generate func() string
}

func NewLocalDispatcher() (*LocalDispatcher, error) {
	gen, err := nanoid.CustomASCII(trackingAlphabet, 12)
	if err != nil {
		return nil, err
	}
	return &LocalDispatcher{generate: gen}, nil
}

func (d *LocalDispatcher) CreateDeliveryOrder(_ context.Context, _ *domain.DeliveryRecord) (string, error) {
	return "AGM" + d.generate(), nil
}

// CourierClient books deliveries through the courier's REST API.
type CourierClient struct {
	baseURL string
	client  *http.Client
}

func NewCourierClient(baseURL string, timeout time.Duration) *CourierClient {
	return &CourierClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type courierOrderRequest struct {
	RecipientName string `json:"recipient_name"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
	Postcode      string `json:"postcode"`
}

type courierOrderResponse struct {
	TrackingNumber string `json:"tracking_number"`
}

func (c *CourierClient) CreateDeliveryOrder(ctx context.Context, delivery *domain.DeliveryRecord) (string, error) {
	body, err := json.Marshal(courierOrderRequest{
		RecipientName: delivery.RecipientName,
		ContactNumber: delivery.ContactNumber,
		Address:       delivery.Address,
		Postcode:      delivery.Postcode,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal courier order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create courier order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("courier API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out courierOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse courier response: %w", err)
	}
	if out.TrackingNumber == "" {
		return "", fmt.Errorf("courier response has no tracking number")
	}
	return out.TrackingNumber, nil
}
