package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/prompt"
)

const (
	DefaultModel = "gpt-4o"
	maxTokens    = 1000
	temperature  = 0.1
)

// Client talks to any OpenAI-compatible chat completion endpoint.
type Client struct {
	*openai.Client
	Model    string
	provider ai.Provider
}

// NewClient targets api.openai.com unless baseURL is set.
func NewClient(apiKey, baseURL, model string) *Client {
	return NewCompatibleClient(ai.ProviderOpenAI, apiKey, baseURL, model, nil)
}

// NewCompatibleClient lets other OpenAI-compatible vendors reuse this adapter
// under their own provider name. A nil httpClient uses the library default.
func NewCompatibleClient(provider ai.Provider, apiKey, baseURL, model string, httpClient *http.Client) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, provider: provider}
}

func (c *Client) Provider() ai.Provider { return c.provider }

// Analyze sends the rubric and the image (as a data URI) in one user message.
func (c *Client) Analyze(ctx context.Context, imagePath, filename string) (ai.Result, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return ai.Result{}, fmt.Errorf("%w: %s: read image: %v", ai.ErrUnusableResponse, c.provider, err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.UserText(filename)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    photos.JPEGDataURI(data),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.Result{}, c.wrapError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return ai.Result{}, fmt.Errorf("%w: %s returned an empty completion", ai.ErrUnusableResponse, c.provider)
	}

	return prompt.ParseResult(resp.Choices[0].Message.Content)
}

func (c *Client) wrapError(err error) error {
	if statusOf(err) == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %s: %v", ai.ErrUnusableResponse, ai.ErrQuotaExceeded, c.provider, err)
	}
	return fmt.Errorf("%w: %s: failed to create chat completion: %v", ai.ErrUnusableResponse, c.provider, err)
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
