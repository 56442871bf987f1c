// Package configcmder provides the config command for managing persistent
// recollect configuration stored in the .recollect/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent recollect configuration.

Configuration is stored as config.toml in the .recollect/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  llm.provider, llm.model, llm.fallback_model, llm.timeout_seconds,
  store.provider, store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  extraction.max_tokens_per_chunk, extraction.chunk_overlap_tokens,
  extraction.similarity_threshold, extraction.high_importance_threshold,
  extraction.conflict_importance_delta,
  cache.ttl_seconds, cache.sweep_interval_seconds,
  worker.queue_size, worker.max_job_attempts, worker.storage_max_attempts,
  worker.reconcile,
  payloads.dir, payloads.watch,
  events.provider, events.topic

Use subcommands to get, set, or list configuration values:
  recollect config set <key> <value>    Set a configuration value
  recollect config get <key>            Get a configuration value
  recollect config list                 List all configuration values

Examples:
  recollect config set llm.provider anthropic
  recollect config set embedding.model nomic-embed-text
  recollect config get store.target
  recollect config list`

const configShortDesc string = "Manage persistent recollect configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
