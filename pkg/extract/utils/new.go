// Package extractutils is the extraction provider utility package
package extractutils

import (
	"fmt"

	"github.com/covoxlabs/recollect/pkg/extract"
	"github.com/covoxlabs/recollect/pkg/extract/anthropic"
	"github.com/covoxlabs/recollect/pkg/extract/openai"
)

type NewProviderOpts struct {
	ProviderType string
	Model        string
	APIKey       string
	TargetURL    string
}

func NewProvider(o *NewProviderOpts) (extract.Provider, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewProvider(openai.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		}), nil
	case "anthropic":
		return anthropic.NewProvider(anthropic.Config{
			APIKey: o.APIKey,
			Model:  o.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}
