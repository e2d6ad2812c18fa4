// Package kafka publishes settle events to a Kafka topic, keyed by session
// id so per-session ordering is preserved across partitions.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/trail/pkg/eventstream"
)

// Publisher writes settle events to Kafka.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.Hash{},
		},
	}
}

// PublishSettled writes one event, keyed by session id.
func (p *Publisher) PublishSettled(ctx context.Context, event *eventstream.SessionSettledEvent) error {
	if event == nil {
		return eventstream.ErrNilSettledEvent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding settle event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("publishing settle event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
