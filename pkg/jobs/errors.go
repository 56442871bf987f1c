package jobs

import "errors"

var (
	// ErrQueueFull means the queue's buffer is at capacity; enqueue never
	// blocks waiting for room.
	ErrQueueFull = errors.New("job queue full")

	// ErrQueueClosed means the queue no longer accepts jobs.
	ErrQueueClosed = errors.New("job queue closed")
)
