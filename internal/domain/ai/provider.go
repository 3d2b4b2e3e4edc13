package ai

import (
	"fmt"
	"strings"
)

// Provider enum
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderClaude   Provider = "claude"
)

// Providers lists every supported backend.
var Providers = []Provider{ProviderDeepSeek, ProviderOpenAI, ProviderClaude}

// ParseProvider maps a case-insensitive name to a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
}

func (p Provider) String() string { return string(p) }
