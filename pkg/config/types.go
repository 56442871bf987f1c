package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent recollect configuration stored as
// config.toml in the .recollect/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version" mapstructure:"version"`
	LLM        LLMConfig        `toml:"llm" mapstructure:"llm"`
	Store      StoreConfig      `toml:"store" mapstructure:"store"`
	Embedding  EmbeddingConfig  `toml:"embedding" mapstructure:"embedding"`
	Extraction ExtractionConfig `toml:"extraction" mapstructure:"extraction"`
	Cache      CacheConfig      `toml:"cache" mapstructure:"cache"`
	Worker     WorkerConfig     `toml:"worker" mapstructure:"worker"`
	Payloads   PayloadsConfig   `toml:"payloads" mapstructure:"payloads"`
	Events     EventsConfig     `toml:"events" mapstructure:"events"`
}

// LLMConfig holds extraction model settings. Provider selects the primary
// extraction provider; the other known provider is used as the fallback.
type LLMConfig struct {
	Provider       string `toml:"provider,omitempty" mapstructure:"provider"`
	Model          string `toml:"model,omitempty" mapstructure:"model"`
	FallbackModel  string `toml:"fallback_model,omitempty" mapstructure:"fallback_model"`
	APIKey         string `toml:"api_key,omitempty" mapstructure:"api_key"`
	FallbackAPIKey string `toml:"fallback_api_key,omitempty" mapstructure:"fallback_api_key"`
	TimeoutSeconds uint   `toml:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
}

// StoreConfig holds memory store backend settings.
type StoreConfig struct {
	Provider string `toml:"provider,omitempty" mapstructure:"provider"`
	Target   string `toml:"target,omitempty" mapstructure:"target"`
	APIKey   string `toml:"api_key,omitempty" mapstructure:"api_key"`
}

// EmbeddingConfig holds embedding provider settings, used by the qdrant
// store backend.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty" mapstructure:"provider"`
	Target     string `toml:"target,omitempty" mapstructure:"target"`
	Model      string `toml:"model,omitempty" mapstructure:"model"`
	Dimensions uint   `toml:"dimensions,omitempty" mapstructure:"dimensions"`
}

// ExtractionConfig holds chunking and deduplication tuning.
type ExtractionConfig struct {
	MaxTokensPerChunk       int     `toml:"max_tokens_per_chunk,omitempty" mapstructure:"max_tokens_per_chunk"`
	ChunkOverlapTokens      int     `toml:"chunk_overlap_tokens,omitempty" mapstructure:"chunk_overlap_tokens"`
	SimilarityThreshold     float64 `toml:"similarity_threshold,omitempty" mapstructure:"similarity_threshold"`
	HighImportanceThreshold int     `toml:"high_importance_threshold,omitempty" mapstructure:"high_importance_threshold"`
	ConflictImportanceDelta int     `toml:"conflict_importance_delta,omitempty" mapstructure:"conflict_importance_delta"`
}

// CacheConfig holds memory read-cache settings.
type CacheConfig struct {
	TTLSeconds           uint `toml:"ttl_seconds,omitempty" mapstructure:"ttl_seconds"`
	SweepIntervalSeconds uint `toml:"sweep_interval_seconds,omitempty" mapstructure:"sweep_interval_seconds"`
}

// WorkerConfig holds job queue and retry settings.
type WorkerConfig struct {
	QueueSize            uint   `toml:"queue_size,omitempty" mapstructure:"queue_size"`
	MaxJobAttempts       uint   `toml:"max_job_attempts,omitempty" mapstructure:"max_job_attempts"`
	RetryDelaySeconds    []uint `toml:"retry_delay_seconds,omitempty" mapstructure:"retry_delay_seconds"`
	ShutdownGraceSeconds uint   `toml:"shutdown_grace_seconds,omitempty" mapstructure:"shutdown_grace_seconds"`
	StorageMaxAttempts   uint   `toml:"storage_max_attempts,omitempty" mapstructure:"storage_max_attempts"`
	StorageBaseDelayMs   uint   `toml:"storage_base_delay_ms,omitempty" mapstructure:"storage_base_delay_ms"`
	Reconcile            bool   `toml:"reconcile,omitempty" mapstructure:"reconcile"`
}

// PayloadsConfig holds the payload directory settings. The directory is both
// the ingest watch target and the durable failure artifact sink.
type PayloadsConfig struct {
	Dir   string `toml:"dir,omitempty" mapstructure:"dir"`
	Watch bool   `toml:"watch,omitempty" mapstructure:"watch"`
}

// EventsConfig holds job lifecycle event publishing settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty" mapstructure:"provider"`
	Brokers  []string `toml:"brokers,omitempty" mapstructure:"brokers"`
	Topic    string   `toml:"topic,omitempty" mapstructure:"topic"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported scalar config keys.
// Keys use dotted notation matching the TOML section structure. List-valued
// settings (worker.retry_delay_seconds, events.brokers) are file-only.
var configKeys = map[string]configKeyInfo{
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.fallback_model": {
		get: func(c *Config) string { return c.LLM.FallbackModel },
		set: func(c *Config, v string) error { c.LLM.FallbackModel = v; return nil },
	},
	"llm.timeout_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.LLM.TimeoutSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.timeout_seconds: %w", err)
			}
			c.LLM.TimeoutSeconds = uint(n)
			return nil
		},
	},
	"store.provider": {
		get: func(c *Config) string { return c.Store.Provider },
		set: func(c *Config, v string) error { c.Store.Provider = v; return nil },
	},
	"store.target": {
		get: func(c *Config) string { return c.Store.Target },
		set: func(c *Config, v string) error { c.Store.Target = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"extraction.max_tokens_per_chunk": {
		get: func(c *Config) string { return strconv.Itoa(c.Extraction.MaxTokensPerChunk) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for extraction.max_tokens_per_chunk: %w", err)
			}
			c.Extraction.MaxTokensPerChunk = n
			return nil
		},
	},
	"extraction.chunk_overlap_tokens": {
		get: func(c *Config) string { return strconv.Itoa(c.Extraction.ChunkOverlapTokens) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for extraction.chunk_overlap_tokens: %w", err)
			}
			c.Extraction.ChunkOverlapTokens = n
			return nil
		},
	},
	"extraction.similarity_threshold": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Extraction.SimilarityThreshold, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for extraction.similarity_threshold: %w", err)
			}
			c.Extraction.SimilarityThreshold = f
			return nil
		},
	},
	"extraction.high_importance_threshold": {
		get: func(c *Config) string { return strconv.Itoa(c.Extraction.HighImportanceThreshold) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for extraction.high_importance_threshold: %w", err)
			}
			c.Extraction.HighImportanceThreshold = n
			return nil
		},
	},
	"extraction.conflict_importance_delta": {
		get: func(c *Config) string { return strconv.Itoa(c.Extraction.ConflictImportanceDelta) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for extraction.conflict_importance_delta: %w", err)
			}
			c.Extraction.ConflictImportanceDelta = n
			return nil
		},
	},
	"cache.ttl_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Cache.TTLSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for cache.ttl_seconds: %w", err)
			}
			c.Cache.TTLSeconds = uint(n)
			return nil
		},
	},
	"cache.sweep_interval_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Cache.SweepIntervalSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for cache.sweep_interval_seconds: %w", err)
			}
			c.Cache.SweepIntervalSeconds = uint(n)
			return nil
		},
	},
	"worker.queue_size": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Worker.QueueSize), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.queue_size: %w", err)
			}
			c.Worker.QueueSize = uint(n)
			return nil
		},
	},
	"worker.max_job_attempts": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Worker.MaxJobAttempts), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.max_job_attempts: %w", err)
			}
			c.Worker.MaxJobAttempts = uint(n)
			return nil
		},
	},
	"worker.storage_max_attempts": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Worker.StorageMaxAttempts), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.storage_max_attempts: %w", err)
			}
			c.Worker.StorageMaxAttempts = uint(n)
			return nil
		},
	},
	"worker.reconcile": {
		get: func(c *Config) string { return strconv.FormatBool(c.Worker.Reconcile) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for worker.reconcile: %w", err)
			}
			c.Worker.Reconcile = b
			return nil
		},
	},
	"payloads.dir": {
		get: func(c *Config) string { return c.Payloads.Dir },
		set: func(c *Config, v string) error { c.Payloads.Dir = v; return nil },
	},
	"payloads.watch": {
		get: func(c *Config) string { return strconv.FormatBool(c.Payloads.Watch) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for payloads.watch: %w", err)
			}
			c.Payloads.Watch = b
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
