// Package retryable wraps any store.Driver with bounded exponential backoff
// on write-path calls. An error and an explicit non-success result both count
// as a failed attempt; after exhausting retries the error is returned to the
// caller, which records the failure for that specific record only.
package retryable

import (
	"context"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/retry"
	"github.com/covoxlabs/recollect/pkg/store"
)

// Driver decorates an inner store.Driver with retry behavior.
type Driver struct {
	inner  store.Driver
	policy retry.Policy
	logger *zap.Logger
}

func NewDriver(inner store.Driver, policy retry.Policy, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

// Store retries the underlying store call with exponential backoff.
func (d *Driver) Store(ctx context.Context, userID, content string, md store.Metadata) (string, error) {
	attempt := 0
	id, err := retry.Do(ctx, d.policy, func() (string, error) {
		attempt++
		id, err := d.inner.Store(ctx, userID, content, md)
		if err != nil {
			d.logger.Warn("store attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return id, err
	})
	return id, err
}

// Reinforce retries the underlying reinforce call with exponential backoff.
func (d *Driver) Reinforce(ctx context.Context, id string) error {
	attempt := 0
	_, err := retry.Do(ctx, d.policy, func() (struct{}, error) {
		attempt++
		err := d.inner.Reinforce(ctx, id)
		if err != nil {
			d.logger.Warn("reinforce attempt failed",
				zap.String("memory_id", id),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return struct{}{}, err
	})
	return err
}

// Search passes through without retry; read failures are handled by the
// deduplication engine's per-record fallback.
func (d *Driver) Search(ctx context.Context, userID, query string, f store.Filters, limit int) ([]store.Result, error) {
	return d.inner.Search(ctx, userID, query, f, limit)
}

// Update passes through without retry.
func (d *Driver) Update(ctx context.Context, id string, fields map[string]any) (*store.Memory, error) {
	return d.inner.Update(ctx, id, fields)
}

// Close closes the inner driver.
func (d *Driver) Close() error {
	return d.inner.Close()
}
