package jobs

import (
	"time"

	"github.com/covoxlabs/recollect/pkg/dedupe"
	"github.com/covoxlabs/recollect/pkg/extract"
)

// RecordFailure describes one record whose storage call exhausted its
// retries. The record is lost for this job but the batch continues.
type RecordFailure struct {
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// Result aggregates one job's outcome.
type Result struct {
	JobID          string `json:"job_id"`
	ConversationID string `json:"conversation_id"`
	Status         Status `json:"status"`

	StoredIDs     []string          `json:"stored_ids,omitempty"`
	ReinforcedIDs []string          `json:"reinforced_ids,omitempty"`
	Failed        []RecordFailure   `json:"failed,omitempty"`
	Conflicts     []dedupe.Conflict `json:"conflicts,omitempty"`

	Chunks   extract.ChunkStats `json:"chunks"`
	Attempts uint               `json:"attempts"`
	Duration time.Duration      `json:"duration"`
}
