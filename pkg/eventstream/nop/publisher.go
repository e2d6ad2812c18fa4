// Package nop provides a no-op eventstream publisher for tests and for
// running with the eventstream disabled.
package nop

import (
	"context"

	"github.com/papercomputeco/trail/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSettled validates input and otherwise does nothing.
func (p *Publisher) PublishSettled(_ context.Context, event *eventstream.SessionSettledEvent) error {
	if event == nil {
		return eventstream.ErrNilSettledEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
