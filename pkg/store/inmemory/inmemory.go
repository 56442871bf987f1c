// Package inmemory implements store.Driver entirely in process. It backs
// tests and the "inmemory" store provider; its similarity scoring is a
// deterministic token-overlap measure, not a real embedding distance.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/covoxlabs/recollect/pkg/memory"
	"github.com/covoxlabs/recollect/pkg/store"
)

// Driver is a concurrency-safe in-process memory store.
type Driver struct {
	mu       sync.RWMutex
	byUser   map[string][]*entry
	salience map[string]int
}

type entry struct {
	mem store.Memory
}

func NewDriver() *Driver {
	return &Driver{
		byUser:   make(map[string][]*entry),
		salience: make(map[string]int),
	}
}

// Store persists a memory and returns a generated id.
func (d *Driver) Store(_ context.Context, userID, content string, md store.Metadata) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.NewString()
	d.byUser[userID] = append(d.byUser[userID], &entry{
		mem: store.Memory{
			ID:       id,
			Content:  content,
			Metadata: md,
		},
	})
	d.salience[id] = 1

	return id, nil
}

// Search ranks the user's memories against query. With an empty query every
// matching memory is returned with score 1.
func (d *Driver) Search(_ context.Context, userID, query string, f store.Filters, limit int) ([]store.Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var results []store.Result
	for _, e := range d.byUser[userID] {
		if f.AgentID != "" && e.mem.Metadata.AgentID != f.AgentID {
			continue
		}
		if f.Kind != "" && e.mem.Metadata.Kind != f.Kind {
			continue
		}

		score := 1.0
		if query != "" {
			score = similarity(query, e.mem.Content)
			if score == 0 {
				continue
			}
		}

		results = append(results, store.Result{Memory: e.mem, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Reinforce bumps the memory's salience counter.
func (d *Driver) Reinforce(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.salience[id]; !ok {
		return store.ErrNotFound
	}
	d.salience[id]++

	return nil
}

// Update patches supported fields on an existing memory.
func (d *Driver) Update(_ context.Context, id string, fields map[string]any) (*store.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entries := range d.byUser {
		for _, e := range entries {
			if e.mem.ID != id {
				continue
			}

			if v, ok := fields["content"].(string); ok {
				e.mem.Content = v
			}
			if v, ok := fields["shareable"].(bool); ok {
				e.mem.Metadata.Shareable = v
			}
			if v, ok := fields["importance"].(int); ok {
				e.mem.Metadata.Importance = v
			}

			mem := e.mem
			return &mem, nil
		}
	}

	return nil, store.ErrNotFound
}

// Salience reports the reinforcement count for a memory id. Test helper.
func (d *Driver) Salience(id string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.salience[id]
}

// Count reports how many memories a user has. Test helper.
func (d *Driver) Count(userID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byUser[userID])
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// similarity is a deterministic token-overlap score in [0,1]: 1 for equal
// normalized text, otherwise the Jaccard index of the token sets.
func similarity(a, b string) float64 {
	na, nb := memory.Normalize(a), memory.Normalize(b)
	if na == nb {
		return 1
	}

	as, bs := tokenSet(na), tokenSet(nb)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	inter := 0
	for tok := range as {
		if _, ok := bs[tok]; ok {
			inter++
		}
	}

	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
