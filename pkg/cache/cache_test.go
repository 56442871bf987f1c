package cache_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/cache"
	"github.com/covoxlabs/recollect/pkg/store"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	snapshot := []store.Memory{{ID: "mem-1", Content: "caller prefers email"}}

	BeforeEach(func() {
		c = cache.New(time.Hour, time.Hour, nil)
		DeferCleanup(c.Close)
	})

	It("returns what was set for the same pair", func() {
		c.Set("caller-1", "agent-1", snapshot)

		got, ok := c.Get("caller-1", "agent-1")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(snapshot))
	})

	It("misses for a different pair", func() {
		c.Set("caller-1", "agent-1", snapshot)

		_, ok := c.Get("caller-1", "agent-2")
		Expect(ok).To(BeFalse())

		_, ok = c.Get("caller-2", "agent-1")
		Expect(ok).To(BeFalse())
	})

	It("keys the wildcard entry separately from specific agents", func() {
		c.Set("caller-1", "", snapshot)

		_, ok := c.Get("caller-1", "agent-1")
		Expect(ok).To(BeFalse())

		got, ok := c.Get("caller-1", "")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(snapshot))
	})

	Context("expiry", func() {
		It("never returns an entry past its TTL", func() {
			c.SetWithTTL("caller-1", "agent-1", snapshot, 10*time.Millisecond)

			_, ok := c.Get("caller-1", "agent-1")
			Expect(ok).To(BeTrue())

			Eventually(func() bool {
				_, ok := c.Get("caller-1", "agent-1")
				return ok
			}).WithTimeout(time.Second).WithPolling(5 * time.Millisecond).Should(BeFalse())
		})

		It("sweeps cold expired entries in the background", func() {
			swept := cache.New(10*time.Millisecond, 20*time.Millisecond, nil)
			DeferCleanup(swept.Close)

			swept.Set("caller-1", "agent-1", snapshot)

			Eventually(func() int {
				return swept.Stats().Entries
			}).WithTimeout(time.Second).WithPolling(10 * time.Millisecond).Should(BeZero())
			Expect(swept.Stats().Evictions).To(BeNumerically(">=", 1))
		})
	})

	Context("invalidation", func() {
		It("drops the specific entry and the caller's wildcard", func() {
			c.Set("caller-1", "agent-1", snapshot)
			c.Set("caller-1", "", snapshot)
			c.Set("caller-1", "agent-2", snapshot)

			c.Invalidate("caller-1", "agent-1")

			_, ok := c.Get("caller-1", "agent-1")
			Expect(ok).To(BeFalse())
			_, ok = c.Get("caller-1", "")
			Expect(ok).To(BeFalse())

			_, ok = c.Get("caller-1", "agent-2")
			Expect(ok).To(BeTrue())
		})

		It("clears everything", func() {
			c.Set("caller-1", "agent-1", snapshot)
			c.Set("caller-2", "agent-1", snapshot)

			c.Clear()

			Expect(c.Stats().Entries).To(BeZero())
		})
	})

	It("counts hits and misses", func() {
		c.Set("caller-1", "agent-1", snapshot)

		c.Get("caller-1", "agent-1")
		c.Get("caller-1", "agent-1")
		c.Get("caller-1", "nope")

		stats := c.Stats()
		Expect(stats.Hits).To(Equal(uint64(2)))
		Expect(stats.Misses).To(Equal(uint64(1)))
	})
})
