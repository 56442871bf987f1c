package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/transcript"
)

// FailedStatus is the status field of a drained payload. Ingestion skips
// payloads carrying it so failures never re-enter the queue on their own.
const FailedStatus = "extraction_failed"

// FailurePayload is the durable artifact written for a job abandoned
// after its last retry. It holds everything needed to reprocess the
// conversation manually.
type FailurePayload struct {
	ConversationID     string               `json:"conversation_id"`
	AgentID            string               `json:"agent_id"`
	CallerID           string               `json:"caller_id"`
	Transcript         []transcript.Message `json:"transcript"`
	DurationSecs       int                  `json:"duration_secs"`
	Status             string               `json:"status"`
	ExtractionAttempts uint                 `json:"extraction_attempts"`
	FailedAt           string               `json:"failed_at"`
	Error              string               `json:"error"`
}

// FailureSink persists abandoned jobs under a payload directory, one
// subdirectory per conversation.
type FailureSink struct {
	dir    string
	logger *zap.Logger
}

// NewFailureSink builds a sink rooted at dir.
func NewFailureSink(dir string, logger *zap.Logger) *FailureSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureSink{dir: dir, logger: logger}
}

// Drain writes the job's transcript and metadata as a failure payload.
// This is the terminal path for an exhausted job, not a crash.
func (s *FailureSink) Drain(job *Job, attempts uint, cause error) (string, error) {
	payload := FailurePayload{
		ConversationID:     job.ConversationID,
		AgentID:            job.AgentID,
		CallerID:           job.CallerID,
		Transcript:         job.Transcript,
		DurationSecs:       job.DurationSecs,
		Status:             FailedStatus,
		ExtractionAttempts: attempts,
		FailedAt:           time.Now().UTC().Format(time.RFC3339),
		Error:              fmt.Sprintf("memory extraction failed after %d attempts: %v", attempts, cause),
	}

	dir := filepath.Join(s.dir, job.ConversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating payload directory: %w", err)
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding failure payload: %w", err)
	}

	path := filepath.Join(dir, job.ConversationID+"_transcription.json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing failure payload: %w", err)
	}

	s.logger.Info("drained failed job for manual reprocessing",
		zap.String("conversation_id", job.ConversationID),
		zap.String("path", path),
	)
	return path, nil
}
