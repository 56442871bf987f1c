package jobs

import (
	"sync"
	"time"
)

// DefaultQueueSize is the buffered capacity of a queue.
const DefaultQueueSize = 256

// Queue is a bounded FIFO of pending jobs, safe for concurrent push and
// pop. The producer and the worker share only this.
type Queue struct {
	jobs chan *Job

	mu     sync.RWMutex
	closed bool
}

// NewQueue builds a queue with the given buffer size. Zero or negative
// falls back to DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{jobs: make(chan *Job, size)}
}

// Enqueue adds a job without blocking. A full queue returns ErrQueueFull
// rather than stalling the producer.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue pops the next job, waiting at most timeout. The short wait lets
// the worker observe shutdown promptly between jobs.
func (q *Queue) Dequeue(timeout time.Duration) (*Job, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, false
		}
		return job, true
	case <-timer.C:
		return nil, false
	}
}

// Len reports how many jobs are waiting.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Close stops accepting new jobs. Already-queued jobs can still be
// dequeued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
