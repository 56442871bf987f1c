// Package extract turns transcript chunks into validated memory records
// via an external language model.
package extract

import "context"

// Provider is a language model backend that answers an extraction prompt
// with text expected to parse as JSON.
type Provider interface {
	// Extract sends the prompt and returns the raw completion text.
	Extract(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs.
	Name() string
}
