// Package dedupe classifies freshly extracted memory records against a
// caller's existing memories.
//
// Classification runs in two phases. An exact content-hash match marks a
// candidate as a duplicate without touching semantic search; everything
// else gets one scoped similarity query. Duplicates whose stored metadata
// disagrees with the candidate are surfaced as conflicts and stored
// separately rather than silently merged.
package dedupe

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/memory"
	"github.com/covoxlabs/recollect/pkg/store"
)

const (
	// DefaultSimilarityThreshold is the minimum semantic score treated as
	// a duplicate.
	DefaultSimilarityThreshold = 0.85

	// DefaultConflictImportanceDelta is the importance gap beyond which
	// matching content counts as contradictory.
	DefaultConflictImportanceDelta = 2

	// hashIndexLimit bounds the per-batch fetch of existing memories.
	hashIndexLimit = 1000

	// semanticLimit bounds each per-candidate similarity query.
	semanticLimit = 5
)

// Action says what the worker should do with a classified record.
type Action string

const (
	// ActionStore creates a new memory.
	ActionStore Action = "store"

	// ActionReinforce boosts an existing memory's salience instead of
	// creating a new one.
	ActionReinforce Action = "reinforce"
)

// Conflict records a duplicate whose metadata contradicts the stored copy.
type Conflict struct {
	ExistingID         string
	ExistingCategory   string
	ExistingImportance int
	Reason             string
}

// Decision is the classification of one candidate record.
type Decision struct {
	Record memory.Record

	Action Action

	// Existing is the matched memory for reinforce and conflict
	// decisions, nil for plain new records.
	Existing *store.Memory

	// Conflict is set when the record is stored despite matching an
	// existing memory.
	Conflict *Conflict

	// BatchRef is the index of the earlier decision in the same batch
	// this record duplicates, or -1 when the match came from the store.
	// The matched memory has no id yet; the storer resolves it once the
	// earlier record has been persisted.
	BatchRef int
}

// Engine classifies batches of records for one (caller, agent) pair.
type Engine struct {
	driver        store.Driver
	threshold     float64
	conflictDelta int
	logger        *zap.Logger
}

// NewEngine builds an engine over the given store driver. Zero threshold
// and delta fall back to the defaults.
func NewEngine(driver store.Driver, threshold float64, conflictDelta int, logger *zap.Logger) *Engine {
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}
	if conflictDelta == 0 {
		conflictDelta = DefaultConflictImportanceDelta
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		driver:        driver,
		threshold:     threshold,
		conflictDelta: conflictDelta,
		logger:        logger,
	}
}

// Classify resolves every record in the batch to a store or reinforce
// decision. The batch shares one fetch of the pair's existing memories;
// if that fetch fails, each record falls back to per-record lookups so a
// degraded store slows classification down rather than aborting it.
func (e *Engine) Classify(ctx context.Context, callerID, agentID string, records []memory.Record) []Decision {
	index, indexErr := e.hashIndex(ctx, callerID, agentID)
	if indexErr != nil {
		e.logger.Warn("batch memory fetch failed, falling back to per-record checks",
			zap.String("caller_id", callerID),
			zap.String("agent_id", agentID),
			zap.Error(indexErr),
		)
	}

	// pending maps the hash of each record already decided as new to its
	// decision index, so an identical record later in the same batch
	// classifies as a duplicate of it instead of a second new memory.
	pending := make(map[string]int)

	decisions := make([]Decision, 0, len(records))
	for i, rec := range records {
		var match *store.Memory
		batchRef := -1
		if j, ok := pending[rec.Hash()]; ok {
			match = batchMemory(records[j])
			batchRef = j
		} else if indexErr == nil {
			match = e.lookup(ctx, callerID, agentID, rec, index)
		} else {
			match = e.lookupPerRecord(ctx, callerID, agentID, rec)
		}

		decision := e.decide(rec, match)
		decision.BatchRef = -1
		if decision.Action == ActionReinforce {
			decision.BatchRef = batchRef
		}
		if decision.Action == ActionStore {
			if _, ok := pending[rec.Hash()]; !ok {
				pending[rec.Hash()] = i
			}
		}
		decisions = append(decisions, decision)
	}
	return decisions
}

// batchMemory wraps an earlier, not-yet-persisted record of the same
// batch so the conflict rule can run against it.
func batchMemory(rec memory.Record) *store.Memory {
	return &store.Memory{
		Content: rec.Content,
		Metadata: store.Metadata{
			Category:   string(rec.Category),
			Importance: rec.Importance,
		},
	}
}

// hashIndex fetches all existing memories for the pair once and indexes
// them by stored content hash.
func (e *Engine) hashIndex(ctx context.Context, callerID, agentID string) (map[string]*store.Memory, error) {
	results, err := e.driver.Search(ctx, callerID, "", store.Filters{AgentID: agentID}, hashIndexLimit)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*store.Memory, len(results))
	for i := range results {
		mem := results[i].Memory
		hash := mem.Metadata.ContentHash
		if hash == "" {
			hash = memory.ContentHash(mem.Content)
		}
		index[hash] = &mem
	}
	return index, nil
}

// lookup finds a duplicate candidate via the shared hash index, then
// semantic search.
func (e *Engine) lookup(ctx context.Context, callerID, agentID string, rec memory.Record, index map[string]*store.Memory) *store.Memory {
	if existing, ok := index[rec.Hash()]; ok {
		return existing
	}
	return e.semanticMatch(ctx, callerID, agentID, rec)
}

// lookupPerRecord is the degraded path used when the batch fetch failed.
// One semantic query serves both phases: an exact hash among the hits
// counts as a hash match, otherwise the top score decides.
func (e *Engine) lookupPerRecord(ctx context.Context, callerID, agentID string, rec memory.Record) *store.Memory {
	results, err := e.search(ctx, callerID, agentID, rec)
	if err != nil || len(results) == 0 {
		return nil
	}

	hash := rec.Hash()
	for i := range results {
		if results[i].Memory.Metadata.ContentHash == hash {
			return &results[i].Memory
		}
	}
	if results[0].Score >= e.threshold {
		return &results[0].Memory
	}
	return nil
}

func (e *Engine) semanticMatch(ctx context.Context, callerID, agentID string, rec memory.Record) *store.Memory {
	results, err := e.search(ctx, callerID, agentID, rec)
	if err != nil || len(results) == 0 {
		return nil
	}
	if results[0].Score >= e.threshold {
		return &results[0].Memory
	}
	return nil
}

func (e *Engine) search(ctx context.Context, callerID, agentID string, rec memory.Record) ([]store.Result, error) {
	results, err := e.driver.Search(ctx, callerID, rec.Content, store.Filters{AgentID: agentID}, semanticLimit)
	if err != nil {
		e.logger.Warn("similarity search failed, treating record as new",
			zap.String("caller_id", callerID),
			zap.Error(err),
		)
		return nil, err
	}
	return results, nil
}

// decide applies the conflict rule to a duplicate candidate. Matching
// content with a different category, or an importance gap beyond the
// configured delta, is contradictory information that must be kept as its
// own memory.
func (e *Engine) decide(rec memory.Record, match *store.Memory) Decision {
	if match == nil {
		return Decision{Record: rec, Action: ActionStore}
	}

	if strings.EqualFold(strings.TrimSpace(match.Content), strings.TrimSpace(rec.Content)) {
		if reason := e.conflictReason(rec, match); reason != "" {
			e.logger.Info("memory conflict detected",
				zap.String("existing_id", match.ID),
				zap.String("reason", reason),
			)
			return Decision{
				Record:   rec,
				Action:   ActionStore,
				Existing: match,
				Conflict: &Conflict{
					ExistingID:         match.ID,
					ExistingCategory:   match.Metadata.Category,
					ExistingImportance: match.Metadata.Importance,
					Reason:             reason,
				},
			}
		}
	}

	return Decision{Record: rec, Action: ActionReinforce, Existing: match}
}

func (e *Engine) conflictReason(rec memory.Record, match *store.Memory) string {
	if match.Metadata.Category != string(rec.Category) {
		return "category mismatch"
	}
	delta := rec.Importance - match.Metadata.Importance
	if delta < 0 {
		delta = -delta
	}
	if delta > e.conflictDelta {
		return "importance mismatch"
	}
	return ""
}
