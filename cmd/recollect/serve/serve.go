// Package servecmder provides the serve command running the extraction
// pipeline: payload watcher, job queue, worker and its collaborators.
package servecmder

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/agentprofile"
	"github.com/covoxlabs/recollect/pkg/cache"
	"github.com/covoxlabs/recollect/pkg/config"
	"github.com/covoxlabs/recollect/pkg/dedupe"
	"github.com/covoxlabs/recollect/pkg/dotdir"
	embeddingutils "github.com/covoxlabs/recollect/pkg/embeddings/utils"
	"github.com/covoxlabs/recollect/pkg/eventstream"
	eventkafka "github.com/covoxlabs/recollect/pkg/eventstream/kafka"
	eventnop "github.com/covoxlabs/recollect/pkg/eventstream/nop"
	"github.com/covoxlabs/recollect/pkg/extract"
	extractutils "github.com/covoxlabs/recollect/pkg/extract/utils"
	"github.com/covoxlabs/recollect/pkg/ingest"
	"github.com/covoxlabs/recollect/pkg/jobs"
	"github.com/covoxlabs/recollect/pkg/logger"
	"github.com/covoxlabs/recollect/pkg/retry"
	"github.com/covoxlabs/recollect/pkg/store"
	"github.com/covoxlabs/recollect/pkg/store/inmemory"
	"github.com/covoxlabs/recollect/pkg/store/openmemory"
	"github.com/covoxlabs/recollect/pkg/store/qdrant"
	"github.com/covoxlabs/recollect/pkg/store/retryable"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

type ServeCommander struct {
	payloadDir string
	debug      bool
	cfg        *config.Config
	logger     *zap.Logger
}

const serveLongDesc string = `Run the Recollect extraction pipeline.

Watches the payloads directory for completed call payload files, queues a
job per conversation and runs the single extraction worker: prefilter,
chunk, extract with the configured LLM provider, validate, privacy filter,
deduplicate against the memory store and persist. Failed jobs retry on an
escalating schedule and drain to a durable failure artifact when exhausted.

Configuration comes from config.toml in the .recollect/ directory and
RECOLLECT_* environment variables.`

const serveShortDesc string = "Run the Recollect extraction pipeline"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			if !cmd.Flags().Changed("payload-dir") {
				cmder.payloadDir = cmder.cfg.Payloads.Dir
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.payloadDir, "payload-dir", "p", "", "Payload directory to watch (default: .recollect/payloads)")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	payloadDir, err := dotdir.NewManager().PayloadsDir(c.payloadDir)
	if err != nil {
		return fmt.Errorf("resolving payload dir: %w", err)
	}

	driver, err := c.newStorageDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	extractor, err := c.newExtractor()
	if err != nil {
		return err
	}

	engine := dedupe.NewEngine(driver,
		c.cfg.Extraction.SimilarityThreshold,
		c.cfg.Extraction.ConflictImportanceDelta,
		c.logger,
	)

	memCache := cache.New(
		time.Duration(c.cfg.Cache.TTLSeconds)*time.Second,
		time.Duration(c.cfg.Cache.SweepIntervalSeconds)*time.Second,
		c.logger,
	)
	defer memCache.Close()

	events, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer events.Close()

	queue := jobs.NewQueue(int(c.cfg.Worker.QueueSize))
	sink := jobs.NewFailureSink(payloadDir, c.logger)

	worker := jobs.NewWorker(jobs.WorkerDeps{
		Queue:     queue,
		Profiles:  c.newProfileManager(driver),
		PreFilter: transcript.NewPreFilter(c.logger),
		Chunker: transcript.NewChunker(
			c.cfg.Extraction.MaxTokensPerChunk,
			c.cfg.Extraction.ChunkOverlapTokens,
			c.logger,
		),
		Extractor: extractor,
		Engine:    engine,
		Driver:    driver,
		Cache:     memCache,
		Sink:      sink,
		Events:    events,
	}, jobs.WorkerConfig{
		MaxJobAttempts: c.cfg.Worker.MaxJobAttempts,
		RetrySchedule:  retry.ScheduleFromSeconds(c.cfg.Worker.RetryDelaySeconds),
		ShutdownGrace:  time.Duration(c.cfg.Worker.ShutdownGraceSeconds) * time.Second,
		HighImportance: c.cfg.Extraction.HighImportanceThreshold,
		Reconcile:      c.cfg.Worker.Reconcile,
	}, c.logger)

	worker.Start()
	defer worker.Stop()

	c.logger.Info("starting extraction worker",
		zap.String("store", c.cfg.Store.Provider),
		zap.String("llm", c.cfg.LLM.Provider),
		zap.Uint("queue_size", c.cfg.Worker.QueueSize),
	)

	errChan := make(chan error, 1)

	if c.cfg.Payloads.Watch {
		watcher, err := ingest.NewWatcher(payloadDir, queue, c.logger)
		if err != nil {
			return fmt.Errorf("creating payload watcher: %w", err)
		}
		defer watcher.Close()

		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()

		go func() {
			if err := watcher.Start(watchCtx); err != nil {
				errChan <- fmt.Errorf("payload watcher error: %w", err)
			}
		}()

		c.logger.Info("watching payload dir", zap.String("dir", payloadDir))
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		queue.Close()
		return nil
	}
}

// newStorageDriver selects the memory store backend and wraps it with
// bounded storage retries.
func (c *ServeCommander) newStorageDriver() (store.Driver, error) {
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
		c.logger.Info("using openmemory store", zap.String("target", c.cfg.Store.Target))

	case "qdrant":
		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: c.cfg.Embedding.Provider,
			TargetURL:    c.cfg.Embedding.Target,
			Model:        c.cfg.Embedding.Model,
			APIKey:       c.cfg.LLM.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}

		host, port, err := splitHostPort(c.cfg.Store.Target)
		if err != nil {
			return nil, fmt.Errorf("parsing qdrant target: %w", err)
		}

		inner, err = qdrant.NewDriver(context.Background(), qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     c.cfg.Store.APIKey,
			Dimensions: uint64(c.cfg.Embedding.Dimensions),
		}, embedder, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating qdrant driver: %w", err)
		}
		c.logger.Info("using qdrant store", zap.String("target", c.cfg.Store.Target))

	case "inmemory":
		inner = inmemory.NewDriver()
		c.logger.Info("using in-memory store")

	default:
		return nil, fmt.Errorf("unsupported store provider: %s", c.cfg.Store.Provider)
	}

	policy := retry.Policy{
		MaxAttempts:  c.cfg.Worker.StorageMaxAttempts,
		InitialDelay: time.Duration(c.cfg.Worker.StorageBaseDelayMs) * time.Millisecond,
		Multiplier:   2,
	}
	return retryable.NewDriver(inner, policy, c.logger), nil
}

// newExtractor builds the primary provider from config and the other
// known provider as the fallback when a key for it is configured.
func (c *ServeCommander) newExtractor() (*extract.Extractor, error) {
	primary, err := extractutils.NewProvider(&extractutils.NewProviderOpts{
		ProviderType: c.cfg.LLM.Provider,
		Model:        c.cfg.LLM.Model,
		APIKey:       c.cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm provider: %w", err)
	}

	var fallback extract.Provider
	if c.cfg.LLM.FallbackAPIKey != "" {
		fallbackType := "anthropic"
		if c.cfg.LLM.Provider == "anthropic" {
			fallbackType = "openai"
		}
		fallback, err = extractutils.NewProvider(&extractutils.NewProviderOpts{
			ProviderType: fallbackType,
			Model:        c.cfg.LLM.FallbackModel,
			APIKey:       c.cfg.LLM.FallbackAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating fallback provider: %w", err)
		}
	}

	return extract.NewExtractor(primary, fallback, c.logger), nil
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if c.cfg.Events.Provider != "kafka" {
		return eventnop.NewPublisher(), nil
	}

	pub, err := eventkafka.NewPublisher(eventkafka.Config{
		Brokers: c.cfg.Events.Brokers,
		Topic:   c.cfg.Events.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	c.logger.Info("publishing job events to kafka",
		zap.Strings("brokers", c.cfg.Events.Brokers),
		zap.String("topic", c.cfg.Events.Topic),
	)
	return pub, nil
}

// splitHostPort parses a qdrant target like "localhost:6334", with or
// without a scheme prefix. A missing port yields 0 and the driver's
// default applies.
func splitHostPort(target string) (string, int, error) {
	s := target
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if s == "" {
		return "", 0, fmt.Errorf("empty target")
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return s, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}

// newProfileManager wires the agent profile TTL layer over the store.
// The platform fetcher is an external collaborator; without one the
// worker skips the profile refresh step.
func (c *ServeCommander) newProfileManager(driver store.Driver) *agentprofile.Manager {
	return agentprofile.NewManager(driver, nil, agentprofile.DefaultTTL, c.logger)
}
