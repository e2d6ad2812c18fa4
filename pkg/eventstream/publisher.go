package eventstream

import "context"

// Publisher publishes settle events to an event stream backend.
type Publisher interface {
	PublishSettled(ctx context.Context, event *SessionSettledEvent) error
	Close() error
}
