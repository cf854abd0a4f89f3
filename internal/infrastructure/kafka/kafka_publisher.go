package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer        *kafka.Writer
	checkoutTopic string
}

func NewDefaultKafkaPublisher(brokers []string, checkoutTopic string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		checkoutTopic: checkoutTopic,
	}
}

func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
			Topic: topic,
		})
	}

	return k.writer.WriteMessages(ctx, km...)
}

// PublishCheckoutEvent writes the event keyed by transaction id so every
// event of one checkout lands on the same partition.
func (k *DefaultKafkaPublisher) PublishCheckoutEvent(ctx context.Context, event domain.CheckoutEvent) error {
	v, err := encodeCheckoutEvent(event)
	if err != nil {
		return err
	}
	return k.Publish(ctx, k.checkoutTopic, domain.Message{Key: []byte(event.TransactionID), Value: v})
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}

func encodeCheckoutEvent(event domain.CheckoutEvent) ([]byte, error) {
	v, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout event %s: %w", event.Type, err)
	}
	return v, nil
}
