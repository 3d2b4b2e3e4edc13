// Package deepseek wires DeepSeek's OpenAI-compatible API into the shared
// chat completion adapter.
package deepseek

import (
	"net/http"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/openai"
)

const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
)

func NewClient(apiKey, baseURL, model string, httpClient *http.Client) *openai.Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return openai.NewCompatibleClient(ai.ProviderDeepSeek, apiKey, baseURL, model, httpClient)
}
