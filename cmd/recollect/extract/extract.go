// Package extractcmder provides the extract command for processing a
// single call payload file synchronously.
package extractcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/cache"
	"github.com/covoxlabs/recollect/pkg/config"
	"github.com/covoxlabs/recollect/pkg/dedupe"
	"github.com/covoxlabs/recollect/pkg/dotdir"
	"github.com/covoxlabs/recollect/pkg/eventstream"
	"github.com/covoxlabs/recollect/pkg/extract"
	extractutils "github.com/covoxlabs/recollect/pkg/extract/utils"
	"github.com/covoxlabs/recollect/pkg/ingest"
	"github.com/covoxlabs/recollect/pkg/jobs"
	"github.com/covoxlabs/recollect/pkg/logger"
	"github.com/covoxlabs/recollect/pkg/retry"
	"github.com/covoxlabs/recollect/pkg/store"
	"github.com/covoxlabs/recollect/pkg/store/inmemory"
	"github.com/covoxlabs/recollect/pkg/store/openmemory"
	"github.com/covoxlabs/recollect/pkg/store/retryable"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

type extractCommander struct {
	payloadPath string
	timeout     time.Duration
	debug       bool
	cfg         *config.Config
	logger      *zap.Logger
}

const extractLongDesc string = `Process a single call payload file synchronously.

Reads a completed call payload JSON file, runs the extraction pipeline
once (prefilter, chunk, extract, validate, privacy filter, deduplicate,
store) and prints the outcome. Failed extraction is not retried; the
payload file stays put for another attempt.

Examples:
  recollect extract ./payloads/conv-123/conv-123_transcription.json`

const extractShortDesc string = "Extract memories from a single call payload"

func NewExtractCmd() *cobra.Command {
	cmder := &extractCommander{}

	cmd := &cobra.Command{
		Use:   "extract <payload-file>",
		Short: extractShortDesc,
		Long:  extractLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg, err = config.LoadFromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.payloadPath = args[0]
			return cmder.run()
		},
	}

	cmd.Flags().DurationVarP(&cmder.timeout, "timeout", "t", 5*time.Minute, "Give up after this long")

	return cmd
}

func (c *extractCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	job, err := loadPayload(c.payloadPath)
	if err != nil {
		return err
	}

	driver, err := c.newStorageDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	primary, err := extractutils.NewProvider(&extractutils.NewProviderOpts{
		ProviderType: c.cfg.LLM.Provider,
		Model:        c.cfg.LLM.Model,
		APIKey:       c.cfg.LLM.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating llm provider: %w", err)
	}

	payloadDir, err := dotdir.NewManager().PayloadsDir(c.cfg.Payloads.Dir)
	if err != nil {
		return fmt.Errorf("resolving payload dir: %w", err)
	}

	memCache := cache.New(0, 0, c.logger)
	defer memCache.Close()

	queue := jobs.NewQueue(1)
	events := newOneshotPublisher()

	worker := jobs.NewWorker(jobs.WorkerDeps{
		Queue:     queue,
		PreFilter: transcript.NewPreFilter(c.logger),
		Chunker: transcript.NewChunker(
			c.cfg.Extraction.MaxTokensPerChunk,
			c.cfg.Extraction.ChunkOverlapTokens,
			c.logger,
		),
		Extractor: extract.NewExtractor(primary, nil, c.logger),
		Engine: dedupe.NewEngine(driver,
			c.cfg.Extraction.SimilarityThreshold,
			c.cfg.Extraction.ConflictImportanceDelta,
			c.logger,
		),
		Driver: driver,
		Cache:  memCache,
		Sink:   jobs.NewFailureSink(payloadDir, c.logger),
		Events: events,
	}, jobs.WorkerConfig{
		// One attempt: the operator re-runs the command instead of
		// waiting out the retry schedule.
		MaxJobAttempts: 1,
	}, c.logger)

	worker.Start()
	defer worker.Stop()

	if err := queue.Enqueue(job); err != nil {
		return fmt.Errorf("queueing job: %w", err)
	}

	select {
	case event := <-events.completed:
		printOutcome(event)
		if event.Status == string(jobs.StatusFailedExhausted) {
			return fmt.Errorf("extraction failed for conversation %s", event.ConversationID)
		}
		return nil
	case <-time.After(c.timeout):
		return fmt.Errorf("timed out after %s waiting for extraction", c.timeout)
	}
}

func (c *extractCommander) newStorageDriver() (store.Driver, error) {
	var (
		inner store.Driver
		err   error
	)

	switch c.cfg.Store.Provider {
	case "openmemory":
		inner, err = openmemory.NewDriver(openmemory.Config{
			URL:    c.cfg.Store.Target,
			APIKey: c.cfg.Store.APIKey,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating openmemory driver: %w", err)
		}
	case "inmemory":
		inner = inmemory.NewDriver()
	default:
		return nil, fmt.Errorf("unsupported store provider for one-shot extraction: %s", c.cfg.Store.Provider)
	}

	policy := retry.Policy{
		MaxAttempts:  c.cfg.Worker.StorageMaxAttempts,
		InitialDelay: time.Duration(c.cfg.Worker.StorageBaseDelayMs) * time.Millisecond,
		Multiplier:   2,
	}
	return retryable.NewDriver(inner, policy, c.logger), nil
}

func loadPayload(path string) (*jobs.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	var p ingest.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if p.ConversationID == "" {
		return nil, fmt.Errorf("payload has no conversation_id")
	}

	return jobs.NewJob(p.ConversationID, p.AgentID, p.CallerID, p.Transcript, p.DurationSecs), nil
}

func printOutcome(event *eventstream.JobCompletedEvent) {
	fmt.Printf("conversation: %s\n", event.ConversationID)
	fmt.Printf("status:       %s\n", event.Status)
	fmt.Printf("stored:       %d\n", event.Outcome.Stored)
	fmt.Printf("reinforced:   %d\n", event.Outcome.Reinforced)
	fmt.Printf("conflicts:    %d\n", event.Outcome.Conflicts)
	fmt.Printf("failed:       %d\n", event.Outcome.Failed)
	fmt.Printf("chunks:       %d ok, %d failed\n", event.Outcome.ChunksSucceeded, event.Outcome.ChunksFailed)
	fmt.Printf("duration:     %dms\n", event.Outcome.DurationMs)
}

// oneshotPublisher hands the terminal job event back to the command.
type oneshotPublisher struct {
	completed chan *eventstream.JobCompletedEvent
}

func newOneshotPublisher() *oneshotPublisher {
	return &oneshotPublisher{completed: make(chan *eventstream.JobCompletedEvent, 1)}
}

func (p *oneshotPublisher) PublishJobCompleted(_ context.Context, event *eventstream.JobCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilJobEvent
	}
	select {
	case p.completed <- event:
	default:
	}
	return nil
}

func (p *oneshotPublisher) Close() error { return nil }
