// Package jobs owns the extraction job lifecycle: a FIFO queue, a single
// worker driving the per-job pipeline, job-level retry, and a durable
// failure sink for jobs that exhaust their attempts.
package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/covoxlabs/recollect/pkg/transcript"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"

	// StatusCompleted is the happy terminal state.
	StatusCompleted Status = "completed"

	// StatusCompletedNoMemories marks a job whose transcript held nothing
	// memorable. Not a failure.
	StatusCompletedNoMemories Status = "completed_no_memories"

	// StatusFailedExhausted marks a job abandoned after its last retry
	// and drained to the failure sink.
	StatusFailedExhausted Status = "failed_exhausted"
)

// Job is one conversation's extraction work item. Immutable once
// enqueued; the queue owns it, then the worker while processing.
type Job struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversation_id"`
	AgentID        string               `json:"agent_id"`
	CallerID       string               `json:"caller_id"`
	Transcript     []transcript.Message `json:"transcript"`
	DurationSecs   int                  `json:"duration_secs"`
	Status         Status               `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// NewJob builds a queued job with a fresh id.
func NewJob(conversationID, agentID, callerID string, msgs []transcript.Message, durationSecs int) *Job {
	return &Job{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		AgentID:        agentID,
		CallerID:       callerID,
		Transcript:     msgs,
		DurationSecs:   durationSecs,
		Status:         StatusQueued,
		CreatedAt:      time.Now().UTC(),
	}
}
