package eventstream

import "context"

// Publisher publishes job events to an event stream backend.
type Publisher interface {
	PublishJobCompleted(ctx context.Context, event *JobCompletedEvent) error
	Close() error
}
