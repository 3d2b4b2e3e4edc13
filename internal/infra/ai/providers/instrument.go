package providers

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/metrics"
)

type instrumented struct {
	next ai.Client
}

// Instrument wraps a client with request metrics and structured logging.
func Instrument(c ai.Client) ai.Client {
	return &instrumented{next: c}
}

func (i *instrumented) Provider() ai.Provider { return i.next.Provider() }

func (i *instrumented) Analyze(ctx context.Context, imagePath, filename string) (ai.Result, error) {
	provider := i.next.Provider().String()
	start := time.Now()

	res, err := i.next.Analyze(ctx, imagePath, filename)

	elapsed := time.Since(start)
	metrics.ProviderRequestDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
	metrics.ProviderRequestsTotal.WithLabelValues(provider, resultLabel(err)).Inc()

	entry := log.WithFields(log.Fields{
		"provider": provider,
		"filename": filename,
		"duration": elapsed.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("provider analysis failed")
		return res, err
	}
	entry.WithField("overall", res.Scores.Overall()).Info("provider analysis complete")
	return res, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "quota"
	default:
		return "error"
	}
}
