package nop

import (
	"context"

	"github.com/covoxlabs/recollect/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishJobCompleted validates input and otherwise does nothing.
func (p *Publisher) PublishJobCompleted(_ context.Context, event *eventstream.JobCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilJobEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
