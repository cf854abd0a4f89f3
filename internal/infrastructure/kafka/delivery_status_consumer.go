package publisher

import (
	"context"
	"encoding/json"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"go.uber.org/zap"
)

type DeliveryStatusHandler interface {
	UpdateDeliveryStatus(ctx context.Context, trackingNumber string, status domain.DeliveryStatus) error
}

// DeliveryStatusConsumer applies courier status updates read from the
// delivery-status topic.
type DeliveryStatusConsumer struct {
	subscriber domain.SubscriberPort
	handler    DeliveryStatusHandler
	topic      string
	groupID    string
	logger     *zap.Logger
}

func NewDeliveryStatusConsumer(
	subscriber domain.SubscriberPort,
	handler DeliveryStatusHandler,
	topic, groupID string,
	logger *zap.Logger,
) *DeliveryStatusConsumer {
	return &DeliveryStatusConsumer{
		subscriber: subscriber,
		handler:    handler,
		topic:      topic,
		groupID:    groupID,
		logger:     logger,
	}
}

// Run blocks until the subscription channel closes.
func (c *DeliveryStatusConsumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return err
	}
	for msg := range msgs {
		c.handle(ctx, msg)
	}
	return nil
}

func (c *DeliveryStatusConsumer) handle(ctx context.Context, msg domain.Message) {
	var event domain.DeliveryStatusEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warn("skip malformed delivery status message", zap.Error(err))
		return
	}
	if event.TrackingNumber == "" || event.Status == "" {
		c.logger.Warn("skip incomplete delivery status message", zap.ByteString("payload", msg.Value))
		return
	}
	if err := c.handler.UpdateDeliveryStatus(ctx, event.TrackingNumber, domain.DeliveryStatus(event.Status)); err != nil {
		c.logger.Error("failed to apply delivery status",
			zap.String("tracking_number", event.TrackingNumber),
			zap.String("status", event.Status),
			zap.Error(err),
		)
	}
}
