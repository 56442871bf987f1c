// Package retry holds the two retry shapes the pipeline uses: bounded
// exponential backoff for individual storage calls, and a fixed escalating
// schedule for whole-job attempts. Both job-level and record-level retry
// paths share this package rather than duplicating the loop.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes bounded exponential backoff: MaxAttempts tries total,
// starting at InitialDelay and multiplying by Multiplier between attempts.
type Policy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy matches the storage-call contract: 3 attempts, 1s base
// delay, doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2,
	}
}

// Do runs op under the policy, returning the first successful result or the
// error of the final attempt. The operation is attempted at most
// p.MaxAttempts times.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0

	return backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(p.MaxAttempts))
}

// Permanent marks err as non-retryable, aborting a Do loop immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Schedule is an explicit list of waits between successive attempts, used
// for job-level retry (1m, 5m, 30m by default). Attempts beyond the schedule
// reuse the final delay.
type Schedule []time.Duration

// DefaultJobSchedule returns the escalating job retry schedule.
func DefaultJobSchedule() Schedule {
	return Schedule{time.Minute, 5 * time.Minute, 30 * time.Minute}
}

// ScheduleFromSeconds builds a Schedule from per-attempt delays in seconds.
func ScheduleFromSeconds(secs []uint) Schedule {
	s := make(Schedule, 0, len(secs))
	for _, v := range secs {
		s = append(s, time.Duration(v)*time.Second)
	}
	return s
}

// Delay returns the wait after the given 1-based failed attempt.
func (s Schedule) Delay(attempt uint) time.Duration {
	if len(s) == 0 {
		return 0
	}
	if int(attempt) > len(s) {
		return s[len(s)-1]
	}
	if attempt == 0 {
		return s[0]
	}
	return s[attempt-1]
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
