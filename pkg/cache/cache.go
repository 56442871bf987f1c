// Package cache is a short-TTL read cache for a caller's memory set,
// keyed by (caller, agent). It exists so repeated reads during one live
// call don't hammer the store.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/store"
)

const (
	// DefaultTTL is how long an entry stays valid.
	DefaultTTL = time.Hour

	// DefaultSweepInterval is how often expired entries are evicted in
	// the background. Lazy expiry on read already guarantees freshness;
	// the sweep only bounds memory held by cold keys.
	DefaultSweepInterval = 5 * time.Minute

	// Wildcard is the agent slot of a cross-agent aggregate entry.
	Wildcard = "*"
)

// Key builds the cache key for a (caller, agent) pair. An empty agentID
// addresses the caller's cross-agent wildcard entry.
func Key(callerID, agentID string) string {
	if agentID == "" {
		agentID = Wildcard
	}
	return callerID + ":" + agentID
}

type entry struct {
	memories []store.Memory
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Stats is a point-in-time snapshot of cache behavior.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache holds per-pair memory snapshots with per-entry TTLs.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	ttl    time.Duration
	logger *zap.Logger

	hits      uint64
	misses    uint64
	evictions uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a cache and starts its background sweeper. Zero ttl or
// sweepInterval fall back to the defaults. Close stops the sweeper.
func New(ttl, sweepInterval time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger,
		stop:    make(chan struct{}),
	}

	go c.sweepLoop(sweepInterval)

	return c
}

// Get returns the cached snapshot for the pair, if present and unexpired.
// An expired entry is evicted on the spot and reported as a miss.
func (c *Cache) Get(callerID, agentID string) ([]store.Memory, bool) {
	key := Key(callerID, agentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}

	c.hits++
	return e.memories, true
}

// Set stores a snapshot under the pair's key with the default TTL.
func (c *Cache) Set(callerID, agentID string, memories []store.Memory) {
	c.SetWithTTL(callerID, agentID, memories, c.ttl)
}

// SetWithTTL stores a snapshot with an entry-specific TTL.
func (c *Cache) SetWithTTL(callerID, agentID string, memories []store.Memory, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(callerID, agentID)] = entry{
		memories: memories,
		storedAt: time.Now(),
		ttl:      ttl,
	}
}

// Invalidate drops the pair's entry. The caller's wildcard entry goes
// with it, since the wildcard aggregates across agents and would
// otherwise serve stale data.
func (c *Cache) Invalidate(callerID, agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, Key(callerID, agentID))
	delete(c.entries, Key(callerID, Wildcard))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Stats reports a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Close stops the background sweeper. The cache stays usable afterward,
// with lazy expiry only.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	swept := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			c.evictions++
			swept++
		}
	}

	if swept > 0 {
		c.logger.Debug("swept expired cache entries", zap.Int("count", swept))
	}
}
