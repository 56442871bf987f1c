// Package recollectcmder
package recollectcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/covoxlabs/recollect/cmd/recollect/config"
	extractcmder "github.com/covoxlabs/recollect/cmd/recollect/extract"
	servecmder "github.com/covoxlabs/recollect/cmd/recollect/serve"
)

const recollectLongDesc string = `Recollect extracts long-term caller memories from call transcripts.

Run the pipeline using:
  recollect serve              Run the extraction worker and payload watcher
  recollect extract <file>     Process a single call payload synchronously
  recollect config             Manage persistent configuration`

const recollectShortDesc string = "Recollect - Call Memory Extraction"

func NewRecollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recollect",
		Short: recollectShortDesc,
		Long:  recollectLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .recollect/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(extractcmder.NewExtractCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}
