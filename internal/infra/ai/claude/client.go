package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/prompt"
)

const (
	DefaultModel = "claude-3-opus-20240229"
	maxTokens    = 1000
	temperature  = 0.1
)

// Client calls the Anthropic Messages API.
type Client struct {
	api   anthropic.Client
	Model string
}

// NewClient creates a new Claude client. Empty baseURL and model fall back
// to the public endpoint and DefaultModel; a nil httpClient uses the SDK
// default. The SDK's own retries are off so one Analyze is one request.
func NewClient(apiKey, baseURL, model string, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: anthropic.NewClient(opts...), Model: model}
}

func (c *Client) Provider() ai.Provider { return ai.ProviderClaude }

func (c *Client) Analyze(ctx context.Context, imagePath, filename string) (ai.Result, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return ai.Result{}, fmt.Errorf("%w: claude: read image: %v", ai.ErrUnusableResponse, err)
	}

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt.UserText(filename)),
				anthropic.NewImageBlockBase64("image/jpeg", base64.StdEncoding.EncodeToString(data)),
			),
		},
	})
	if err != nil {
		return ai.Result{}, wrapError(err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return prompt.ParseResult(block.Text)
		}
	}
	return ai.Result{}, fmt.Errorf("%w: claude: no text content in response", ai.ErrUnusableResponse)
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w: claude: %v", ai.ErrUnusableResponse, ai.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("%w: claude API error (status %d): %v", ai.ErrUnusableResponse, apiErr.StatusCode, err)
	}
	return fmt.Errorf("%w: claude: failed to send request: %v", ai.ErrUnusableResponse, err)
}
