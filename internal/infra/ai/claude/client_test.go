package claude

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
)

func writeImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(p, []byte{0xff, 0xd8, 0xff, 0xd9}, 0o600))
	return p
}

type sentRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Source *struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
				Data      string `json:"data"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func TestAnalyze(t *testing.T) {
	var got sentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-opus-20240229","content":[{"type":"text","text":"{\"scores\":{\"technical\":90,\"composition\":80,\"aesthetic\":70,\"narrative\":60},\"analysis\":{\"highlights\":[\"sharp\"]}}"}]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", srv.URL, "", srv.Client())
	res, err := c.Analyze(context.Background(), writeImage(t), "photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, 75, res.Scores.Overall())
	assert.Equal(t, []string{"sharp"}, res.Analysis.Highlights)
	assert.Equal(t, []string{}, res.Analysis.Suggestions)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, maxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content[0].Text, "photo.jpg")
	require.Len(t, got.Messages[0].Content, 2)
	img := got.Messages[0].Content[1]
	assert.Equal(t, "image", img.Type)
	require.NotNil(t, img.Source)
	assert.Equal(t, "base64", img.Source.Type)
	assert.Equal(t, "image/jpeg", img.Source.MediaType)
	assert.Equal(t, "/9j/2Q==", img.Source.Data)
}

func TestAnalyzeStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		quota  bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"overloaded", 529, false},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
			}))
			defer srv.Close()

			_, err := NewClient("k", srv.URL, "", srv.Client()).Analyze(context.Background(), writeImage(t), "photo.jpg")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ai.ErrUnusableResponse))
			assert.Equal(t, tt.quota, errors.Is(err, ai.ErrQuotaExceeded))
		})
	}
}

func TestAnalyzeUnparseableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Sorry, I can't help with that."}]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, "", srv.Client()).Analyze(context.Background(), writeImage(t), "photo.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUnusableResponse))
}

func TestAnalyzeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient("k", url, "", nil).Analyze(context.Background(), writeImage(t), "photo.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUnusableResponse))
}

func TestAnalyzeMissingImageIsProviderError(t *testing.T) {
	_, err := NewClient("k", "http://127.0.0.1:1", "", nil).Analyze(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), "gone.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUnusableResponse))
}
