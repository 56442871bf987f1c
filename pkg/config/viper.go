package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/covoxlabs/recollect/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the RECOLLECT_ prefix.
//
// Config precedence (highest to lowest):
//  1. Environment variables (RECOLLECT_STORE_TARGET, RECOLLECT_LLM_MODEL, ...)
//  2. config.toml file values
//  3. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("RECOLLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// LoadFromViper unmarshals the viper state into a Config and fills any
// remaining zero-value fields with defaults.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// LLM
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.fallback_model", d.LLM.FallbackModel)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)

	// Store
	v.SetDefault("store.provider", d.Store.Provider)
	v.SetDefault("store.target", d.Store.Target)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Extraction
	v.SetDefault("extraction.max_tokens_per_chunk", d.Extraction.MaxTokensPerChunk)
	v.SetDefault("extraction.chunk_overlap_tokens", d.Extraction.ChunkOverlapTokens)
	v.SetDefault("extraction.similarity_threshold", d.Extraction.SimilarityThreshold)
	v.SetDefault("extraction.high_importance_threshold", d.Extraction.HighImportanceThreshold)
	v.SetDefault("extraction.conflict_importance_delta", d.Extraction.ConflictImportanceDelta)

	// Cache
	v.SetDefault("cache.ttl_seconds", d.Cache.TTLSeconds)
	v.SetDefault("cache.sweep_interval_seconds", d.Cache.SweepIntervalSeconds)

	// Worker
	v.SetDefault("worker.queue_size", d.Worker.QueueSize)
	v.SetDefault("worker.max_job_attempts", d.Worker.MaxJobAttempts)
	v.SetDefault("worker.retry_delay_seconds", d.Worker.RetryDelaySeconds)
	v.SetDefault("worker.shutdown_grace_seconds", d.Worker.ShutdownGraceSeconds)
	v.SetDefault("worker.storage_max_attempts", d.Worker.StorageMaxAttempts)
	v.SetDefault("worker.storage_base_delay_ms", d.Worker.StorageBaseDelayMs)
	v.SetDefault("worker.reconcile", d.Worker.Reconcile)

	// Payloads
	v.SetDefault("payloads.dir", d.Payloads.Dir)
	v.SetDefault("payloads.watch", d.Payloads.Watch)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
