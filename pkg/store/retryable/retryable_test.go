package retryable_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/retry"
	"github.com/covoxlabs/recollect/pkg/store"
	"github.com/covoxlabs/recollect/pkg/store/retryable"
)

// flakyDriver fails a scripted number of times before succeeding.
type flakyDriver struct {
	storeFailures     int
	reinforceFailures int
	storeCalls        int
	reinforceCalls    int
}

func (f *flakyDriver) Store(_ context.Context, _, _ string, _ store.Metadata) (string, error) {
	f.storeCalls++
	if f.storeCalls <= f.storeFailures {
		return "", errors.New("store unavailable")
	}
	return "mem-1", nil
}

func (f *flakyDriver) Search(_ context.Context, _, _ string, _ store.Filters, _ int) ([]store.Result, error) {
	return nil, nil
}

func (f *flakyDriver) Reinforce(_ context.Context, _ string) error {
	f.reinforceCalls++
	if f.reinforceCalls <= f.reinforceFailures {
		return store.ErrNotSuccessful
	}
	return nil
}

func (f *flakyDriver) Update(_ context.Context, _ string, _ map[string]any) (*store.Memory, error) {
	return nil, store.ErrNotFound
}

func (f *flakyDriver) Close() error { return nil }

var _ = Describe("Driver", func() {
	var ctx context.Context

	policy := retry.Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("succeeds after transient store failures", func() {
		inner := &flakyDriver{storeFailures: 2}
		driver := retryable.NewDriver(inner, policy, nil)

		id, err := driver.Store(ctx, "caller-1", "a fact", store.Metadata{})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("mem-1"))
		Expect(inner.storeCalls).To(Equal(3))
	})

	It("attempts a permanently failing store exactly MaxAttempts times", func() {
		inner := &flakyDriver{storeFailures: 100}
		driver := retryable.NewDriver(inner, policy, nil)

		_, err := driver.Store(ctx, "caller-1", "a fact", store.Metadata{})
		Expect(err).To(HaveOccurred())
		Expect(inner.storeCalls).To(Equal(3))
	})

	It("treats a non-success reinforce result as a failed attempt", func() {
		inner := &flakyDriver{reinforceFailures: 1}
		driver := retryable.NewDriver(inner, policy, nil)

		Expect(driver.Reinforce(ctx, "mem-1")).To(Succeed())
		Expect(inner.reinforceCalls).To(Equal(2))
	})
})
