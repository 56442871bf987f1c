package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeJobCompleted is emitted after an extraction job reaches a
	// terminal state.
	EventTypeJobCompleted = "recollect.job.completed"
)

// JobCompletedEvent is a transport-neutral event payload for a finished
// extraction job.
type JobCompletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	JobID          string `json:"job_id"`
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	CallerID       string `json:"caller_id"`

	// Status is the job's terminal state.
	Status string `json:"status"`

	Outcome JobOutcome `json:"outcome"`
}

// JobOutcome captures per-job result counts.
type JobOutcome struct {
	Stored          int   `json:"stored"`
	Reinforced      int   `json:"reinforced"`
	Failed          int   `json:"failed"`
	Conflicts       int   `json:"conflicts"`
	ChunksSucceeded int   `json:"chunks_succeeded"`
	ChunksFailed    int   `json:"chunks_failed"`
	Attempts        uint  `json:"attempts"`
	DurationMs      int64 `json:"duration_ms"`
}
