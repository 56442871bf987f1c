package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/agentprofile"
	"github.com/covoxlabs/recollect/pkg/cache"
	"github.com/covoxlabs/recollect/pkg/dedupe"
	"github.com/covoxlabs/recollect/pkg/eventstream"
	"github.com/covoxlabs/recollect/pkg/extract"
	"github.com/covoxlabs/recollect/pkg/memory"
	"github.com/covoxlabs/recollect/pkg/retry"
	"github.com/covoxlabs/recollect/pkg/store"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

const (
	// DefaultPollInterval is how often the worker checks the queue
	// between jobs, bounding how long shutdown goes unnoticed.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultShutdownGrace is how long Stop waits for the in-flight job.
	DefaultShutdownGrace = 5 * time.Second

	// DefaultMaxJobAttempts is how many times one job is tried before it
	// drains to the failure sink.
	DefaultMaxJobAttempts = 3

	// DefaultHighImportanceThreshold marks memories shareable across
	// agents.
	DefaultHighImportanceThreshold = 8

	// memoryKind tags caller memories in the store.
	memoryKind = "memory"

	// reconcileLimit bounds the optional post-storage read-back.
	reconcileLimit = 1000
)

// WorkerConfig tunes the worker's retry and shutdown behavior. Zero
// values fall back to the defaults.
type WorkerConfig struct {
	PollInterval   time.Duration
	ShutdownGrace  time.Duration
	MaxJobAttempts uint

	// RetrySchedule is the delay before each re-attempt of a failed job.
	RetrySchedule retry.Schedule

	// HighImportance is the importance at or above which a stored memory
	// is flagged shareable.
	HighImportance int

	// Reconcile re-reads the store after a job and warns on a count
	// shortfall. Diagnostic only.
	Reconcile bool
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.MaxJobAttempts == 0 {
		c.MaxJobAttempts = DefaultMaxJobAttempts
	}
	if len(c.RetrySchedule) == 0 {
		c.RetrySchedule = retry.DefaultJobSchedule()
	}
	if c.HighImportance == 0 {
		c.HighImportance = DefaultHighImportanceThreshold
	}
	return c
}

// WorkerDeps are the collaborators the worker drives per job. Profiles
// and Events may be nil.
type WorkerDeps struct {
	Queue     *Queue
	Profiles  *agentprofile.Manager
	PreFilter *transcript.PreFilter
	Chunker   *transcript.Chunker
	Extractor *extract.Extractor
	Engine    *dedupe.Engine
	Driver    store.Driver
	Cache     *cache.Cache
	Sink      *FailureSink
	Events    eventstream.Publisher
}

// Worker is the single consumer of the job queue. It processes jobs one
// at a time in arrival order; retry backoff deliberately blocks the next
// job rather than complicating the concurrency model.
type Worker struct {
	deps   WorkerDeps
	cfg    WorkerConfig
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker wires a worker. Start must be called before jobs are
// consumed.
func NewWorker(deps WorkerDeps, cfg WorkerConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the consume loop.
func (w *Worker) Start() {
	go w.run()
}

// Stop halts new dequeues and waits up to the shutdown grace period for
// the in-flight job before giving up on it.
func (w *Worker) Stop() {
	w.cancel()

	select {
	case <-w.done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.logger.Warn("worker shutdown grace period elapsed, abandoning in-flight job")
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		job, ok := w.deps.Queue.Dequeue(w.cfg.PollInterval)
		if !ok {
			continue
		}

		w.process(job)
	}
}

// process drives one job through the pipeline with whole-job retry. Any
// attempt failure waits out the escalating schedule and tries again;
// after the last attempt the job drains to the failure sink.
func (w *Worker) process(job *Job) {
	start := time.Now()
	job.Status = StatusProcessing

	var lastErr error
	for attempt := uint(1); attempt <= w.cfg.MaxJobAttempts; attempt++ {
		result, err := w.attempt(job)
		if err == nil {
			result.Attempts = attempt
			result.Duration = time.Since(start)
			job.Status = result.Status
			w.finish(job, result)
			return
		}

		lastErr = err
		w.logger.Warn("job attempt failed",
			zap.String("conversation_id", job.ConversationID),
			zap.Uint("attempt", attempt),
			zap.Uint("max_attempts", w.cfg.MaxJobAttempts),
			zap.Error(err),
		)

		if attempt == w.cfg.MaxJobAttempts {
			break
		}

		delay := w.cfg.RetrySchedule.Delay(attempt)
		if err := retry.Sleep(w.ctx, delay); err != nil {
			w.logger.Warn("shutdown during job retry wait, draining job early",
				zap.String("conversation_id", job.ConversationID),
			)
			break
		}
	}

	job.Status = StatusFailedExhausted
	if _, err := w.deps.Sink.Drain(job, w.cfg.MaxJobAttempts, lastErr); err != nil {
		w.logger.Error("draining failed job",
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
	}
	w.finish(job, &Result{
		JobID:          job.ID,
		ConversationID: job.ConversationID,
		Status:         StatusFailedExhausted,
		Attempts:       w.cfg.MaxJobAttempts,
		Duration:       time.Since(start),
	})
}

// attempt runs the pipeline once: profile refresh, prefilter, chunk,
// extract, deduplicate, store, invalidate cache.
func (w *Worker) attempt(job *Job) (*Result, error) {
	ctx := w.ctx

	if w.deps.Profiles != nil {
		w.deps.Profiles.Refresh(ctx, job.AgentID)
	}

	filtered := w.deps.PreFilter.Apply(job.Transcript)
	chunks := w.deps.Chunker.Split(filtered)

	records, stats := w.deps.Extractor.ExtractAll(ctx, extract.PromptParams{
		AgentID:        job.AgentID,
		CallerID:       job.CallerID,
		ConversationID: job.ConversationID,
	}, chunks)

	// Partial chunk failure is tolerated; losing every chunk is an
	// extraction failure worth a whole-job retry.
	if stats.Total > 0 && stats.Failed == stats.Total {
		return nil, fmt.Errorf("extraction failed for all %d chunks", stats.Total)
	}

	result := &Result{
		JobID:          job.ID,
		ConversationID: job.ConversationID,
		Chunks:         stats,
	}

	if len(records) == 0 {
		w.logger.Info("no memories extracted",
			zap.String("conversation_id", job.ConversationID),
		)
		result.Status = StatusCompletedNoMemories
		return result, nil
	}

	decisions := w.deps.Engine.Classify(ctx, job.CallerID, job.AgentID, records)
	w.apply(ctx, job, decisions, result)

	w.deps.Cache.Invalidate(job.CallerID, job.AgentID)

	if w.cfg.Reconcile {
		w.reconcile(ctx, job, result)
	}

	result.Status = StatusCompleted
	w.logger.Info("memory extraction complete",
		zap.String("conversation_id", job.ConversationID),
		zap.Int("stored", len(result.StoredIDs)),
		zap.Int("reinforced", len(result.ReinforcedIDs)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("conflicts", len(result.Conflicts)),
	)
	return result, nil
}

// apply executes the dedupe decisions. A record whose storage call
// exhausts its retries is recorded as failed without aborting the batch.
// A within-batch duplicate reinforces the id its first copy was stored
// under; when that store failed, the duplicate is stored instead.
func (w *Worker) apply(ctx context.Context, job *Job, decisions []dedupe.Decision, result *Result) {
	now := time.Now().UTC().Format(time.RFC3339)
	stored := make([]string, len(decisions))

	for i, decision := range decisions {
		switch decision.Action {
		case dedupe.ActionReinforce:
			var id string
			if decision.BatchRef >= 0 {
				id = stored[decision.BatchRef]
			} else {
				id = decision.Existing.ID
			}
			if id == "" {
				stored[i] = w.storeRecord(ctx, job, decision, now, result)
				continue
			}

			if err := w.deps.Driver.Reinforce(ctx, id); err != nil {
				result.Failed = append(result.Failed, RecordFailure{
					Content: decision.Record.Content,
					Reason:  fmt.Sprintf("reinforce: %v", err),
				})
				continue
			}
			result.ReinforcedIDs = append(result.ReinforcedIDs, id)

		case dedupe.ActionStore:
			stored[i] = w.storeRecord(ctx, job, decision, now, result)
		}
	}
}

// storeRecord persists one new memory and returns its id, or the empty
// string when storage failed.
func (w *Worker) storeRecord(ctx context.Context, job *Job, decision dedupe.Decision, timestamp string, result *Result) string {
	md := w.metadataFor(job, decision.Record, timestamp)
	id, err := w.deps.Driver.Store(ctx, job.CallerID, decision.Record.Content, md)
	if err != nil {
		result.Failed = append(result.Failed, RecordFailure{
			Content: decision.Record.Content,
			Reason:  fmt.Sprintf("store: %v", err),
		})
		return ""
	}

	result.StoredIDs = append(result.StoredIDs, id)
	if decision.Conflict != nil {
		result.Conflicts = append(result.Conflicts, *decision.Conflict)
	}
	return id
}

func (w *Worker) metadataFor(job *Job, rec memory.Record, timestamp string) store.Metadata {
	return store.Metadata{
		AgentID:         job.AgentID,
		ConversationID:  job.ConversationID,
		CallerID:        job.CallerID,
		Category:        string(rec.Category),
		Importance:      rec.Importance,
		Entities:        rec.Entities,
		Timestamp:       timestamp,
		Shareable:       rec.Importance >= w.cfg.HighImportance,
		ContentHash:     rec.Hash(),
		PrivacyFiltered: rec.PrivacyFiltered,
		Kind:            memoryKind,
	}
}

// reconcile re-reads the pair's memories and warns when fewer are
// observed than this job stored. Never corrective.
func (w *Worker) reconcile(ctx context.Context, job *Job, result *Result) {
	results, err := w.deps.Driver.Search(ctx, job.CallerID, "", store.Filters{AgentID: job.AgentID}, reconcileLimit)
	if err != nil {
		w.logger.Warn("reconciliation read failed",
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
		return
	}

	if len(results) < len(result.StoredIDs) {
		w.logger.Warn("reconciliation shortfall",
			zap.String("conversation_id", job.ConversationID),
			zap.Int("observed", len(results)),
			zap.Int("expected_at_least", len(result.StoredIDs)),
		)
	}
}

// finish publishes the terminal event. Publish failure is logged, never
// propagated; the job already reached its terminal state.
func (w *Worker) finish(job *Job, result *Result) {
	if w.deps.Events == nil {
		return
	}

	event := &eventstream.JobCompletedEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventstream.EventTypeJobCompleted,
		EventID:        uuid.New().String(),
		EmittedAt:      time.Now().UTC(),
		JobID:          job.ID,
		ConversationID: job.ConversationID,
		AgentID:        job.AgentID,
		CallerID:       job.CallerID,
		Status:         string(result.Status),
		Outcome: eventstream.JobOutcome{
			Stored:          len(result.StoredIDs),
			Reinforced:      len(result.ReinforcedIDs),
			Failed:          len(result.Failed),
			Conflicts:       len(result.Conflicts),
			ChunksSucceeded: result.Chunks.Succeeded,
			ChunksFailed:    result.Chunks.Failed,
			Attempts:        result.Attempts,
			DurationMs:      result.Duration.Milliseconds(),
		},
	}

	if err := w.deps.Events.PublishJobCompleted(context.Background(), event); err != nil {
		w.logger.Warn("publishing job event failed",
			zap.String("conversation_id", job.ConversationID),
			zap.Error(err),
		)
	}
}
