// Package openai implements pkg/extract's Provider on OpenAI's chat
// completion API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/covoxlabs/recollect/pkg/extract"
)

// DefaultModel is the default extraction model.
const DefaultModel = "gpt-4o-mini"

// extractionTemperature keeps completions near-deterministic so the same
// transcript yields stable records.
const extractionTemperature = 0.3

// Provider calls OpenAI chat completions.
type Provider struct {
	client openaisdk.Client
	model  string
}

// Config holds settings for the OpenAI provider.
type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel if empty.
	Model string
}

// NewProvider creates an OpenAI-backed extraction provider.
func NewProvider(cfg Config) *Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client: openaisdk.NewClient(opts...),
		model:  model,
	}
}

// Extract sends the prompt as a single user message and returns the
// completion text.
func (p *Provider) Extract(ctx context.Context, prompt string) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
		Temperature: param.NewOpt(extractionTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no completion choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Name identifies the provider in logs.
func (p *Provider) Name() string {
	return "openai/" + p.model
}

var _ extract.Provider = (*Provider)(nil)
