// Package agentprofile keeps a cached copy of each agent's external
// profile in the memory store, refreshing it when the copy goes stale.
package agentprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/store"
)

// DefaultTTL is how long a stored profile counts as fresh.
const DefaultTTL = 24 * time.Hour

// Kind tags profile memories in the store so they never mix with caller
// memories.
const Kind = "agent_profile"

// Profile is the external agent definition. Unknown upstream fields are
// preserved through Raw so a round trip loses nothing.
type Profile struct {
	AgentID      string `json:"agent_id"`
	Name         string `json:"name"`
	FirstMessage string `json:"first_message,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Fetcher retrieves a profile from the upstream agent platform.
type Fetcher interface {
	FetchProfile(ctx context.Context, agentID string) (*Profile, error)
}

// Manager caches profiles in the memory store with a freshness TTL.
type Manager struct {
	driver  store.Driver
	fetcher Fetcher
	ttl     time.Duration
	logger  *zap.Logger
}

// NewManager builds a manager. Zero ttl falls back to DefaultTTL.
// fetcher may be nil, in which case Refresh only reads.
func NewManager(driver store.Driver, fetcher Fetcher, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		driver:  driver,
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
	}
}

// Refresh makes sure a fresh profile is stored for the agent, fetching
// from upstream when the cached copy is missing or stale. A refresh
// failure is logged and swallowed: memory extraction must not depend on
// the agent platform being up.
func (m *Manager) Refresh(ctx context.Context, agentID string) {
	existing, err := m.lookup(ctx, agentID)
	if err != nil {
		m.logger.Warn("agent profile lookup failed", zap.String("agent_id", agentID), zap.Error(err))
	}
	if existing != nil {
		m.logger.Debug("agent profile is cached and fresh", zap.String("agent_id", agentID))
		return
	}

	if m.fetcher == nil {
		return
	}

	profile, err := m.fetcher.FetchProfile(ctx, agentID)
	if err != nil {
		m.logger.Warn("agent profile fetch failed", zap.String("agent_id", agentID), zap.Error(err))
		return
	}
	if profile == nil {
		return
	}

	if err := m.storeProfile(ctx, agentID, profile); err != nil {
		m.logger.Warn("agent profile store failed", zap.String("agent_id", agentID), zap.Error(err))
		return
	}

	m.logger.Info("agent profile updated", zap.String("agent_id", agentID))
}

// Get returns the cached profile if present and fresh, nil otherwise.
func (m *Manager) Get(ctx context.Context, agentID string) (*Profile, error) {
	return m.lookup(ctx, agentID)
}

func (m *Manager) lookup(ctx context.Context, agentID string) (*Profile, error) {
	results, err := m.driver.Search(ctx, agentID, "", store.Filters{Kind: Kind}, 1)
	if err != nil {
		return nil, fmt.Errorf("searching agent profile: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	mem := results[0].Memory
	storedAt, err := time.Parse(time.RFC3339, mem.Metadata.Timestamp)
	if err != nil || time.Since(storedAt) >= m.ttl {
		return nil, nil
	}

	var profile Profile
	if err := json.Unmarshal([]byte(mem.Content), &profile); err != nil {
		return nil, fmt.Errorf("decoding agent profile: %w", err)
	}
	profile.Raw = json.RawMessage(mem.Content)
	if profile.AgentID == "" {
		profile.AgentID = agentID
	}
	return &profile, nil
}

func (m *Manager) storeProfile(ctx context.Context, agentID string, profile *Profile) error {
	content := profile.Raw
	if len(content) == 0 {
		encoded, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("encoding agent profile: %w", err)
		}
		content = encoded
	}

	_, err := m.driver.Store(ctx, agentID, string(content), store.Metadata{
		AgentID:   agentID,
		Kind:      Kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("storing agent profile: %w", err)
	}
	return nil
}
