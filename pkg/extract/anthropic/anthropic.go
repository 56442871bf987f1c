// Package anthropic implements pkg/extract's Provider on Anthropic's
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/covoxlabs/recollect/pkg/extract"
)

// DefaultModel is the default extraction model.
const DefaultModel = "claude-3-5-haiku-latest"

const (
	// maxCompletionTokens bounds the extraction response.
	maxCompletionTokens = 2000

	// extractionTemperature keeps completions near-deterministic so the
	// same transcript yields stable records.
	extractionTemperature = 0.3
)

// Provider calls the Anthropic messages API.
type Provider struct {
	client anthropicsdk.Client
	model  string
}

// Config holds settings for the Anthropic provider.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// Model is the model to use. Defaults to DefaultModel if empty.
	Model string
}

// NewProvider creates an Anthropic-backed extraction provider.
func NewProvider(cfg Config) *Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: anthropicsdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
	}
}

// Extract sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (p *Provider) Extract(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.model),
		MaxTokens: maxCompletionTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
		Temperature: param.NewOpt(extractionTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// Name identifies the provider in logs.
func (p *Provider) Name() string {
	return "anthropic/" + p.model
}

var _ extract.Provider = (*Provider)(nil)
