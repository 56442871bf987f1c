package config

const (
	defaultLLMProvider    = "openai"
	defaultModel          = "gpt-4o-mini"
	defaultFallbackModel  = "claude-3-5-haiku-latest"
	defaultLLMTimeoutSecs = 60

	defaultStoreProvider = "openmemory"
	defaultStoreTarget   = "http://localhost:8080"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultMaxTokensPerChunk       = 10000
	defaultChunkOverlapTokens      = 200
	defaultSimilarityThreshold     = 0.85
	defaultHighImportanceThreshold = 8
	defaultConflictImportanceDelta = 2

	defaultCacheTTLSecs       = 3600
	defaultCacheSweepSecs     = 300
	defaultQueueSize          = 256
	defaultMaxJobAttempts     = 3
	defaultShutdownGraceSecs  = 5
	defaultStorageMaxAttempts = 3
	defaultStorageBaseDelayMs = 1000

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "recollect.jobs"
)

// defaultJobRetryDelaySeconds is the escalating wait between whole-job
// attempts: 1 minute, 5 minutes, 30 minutes.
var defaultJobRetryDelaySeconds = []uint{60, 300, 1800}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		LLM: LLMConfig{
			Provider:       defaultLLMProvider,
			Model:          defaultModel,
			FallbackModel:  defaultFallbackModel,
			TimeoutSeconds: defaultLLMTimeoutSecs,
		},
		Store: StoreConfig{
			Provider: defaultStoreProvider,
			Target:   defaultStoreTarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Extraction: ExtractionConfig{
			MaxTokensPerChunk:       defaultMaxTokensPerChunk,
			ChunkOverlapTokens:      defaultChunkOverlapTokens,
			SimilarityThreshold:     defaultSimilarityThreshold,
			HighImportanceThreshold: defaultHighImportanceThreshold,
			ConflictImportanceDelta: defaultConflictImportanceDelta,
		},
		Cache: CacheConfig{
			TTLSeconds:           defaultCacheTTLSecs,
			SweepIntervalSeconds: defaultCacheSweepSecs,
		},
		Worker: WorkerConfig{
			QueueSize:            defaultQueueSize,
			MaxJobAttempts:       defaultMaxJobAttempts,
			RetryDelaySeconds:    append([]uint(nil), defaultJobRetryDelaySeconds...),
			ShutdownGraceSeconds: defaultShutdownGraceSecs,
			StorageMaxAttempts:   defaultStorageMaxAttempts,
			StorageBaseDelayMs:   defaultStorageBaseDelayMs,
			Reconcile:            false,
		},
		Payloads: PayloadsConfig{
			Watch: true,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
