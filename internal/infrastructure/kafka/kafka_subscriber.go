package publisher

import (
	"context"
	"errors"

	"github.com/LavaJover/agromarket-checkout-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	brokers []string
}

func NewDefaultKafkaSubscriber(brokers []string) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers}
}

// Subscribe streams messages until ctx is cancelled or the reader fails,
// then closes the channel.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	if len(k.brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
