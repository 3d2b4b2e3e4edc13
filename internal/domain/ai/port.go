package ai

import (
	"context"

	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
)

// Result is what a provider returns for one photo, before persistence.
type Result struct {
	Scores   photos.ScoreSet   `json:"scores"`
	Analysis photos.Commentary `json:"analysis"`
}

// Client scores one image against the rubric.
type Client interface {
	Analyze(ctx context.Context, imagePath, filename string) (Result, error)
	Provider() Provider
}

// Resolver picks a Client by provider name; an empty name selects the default.
type Resolver interface {
	Resolve(name string) (Client, error)
}
