package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnusableResponse covers every provider failure: transport errors, non-2xx
// statuses and responses without a parseable JSON object.
var ErrUnusableResponse = errors.New("ai provider response unusable")

// ErrUnsupportedProvider is returned when a provider name matches no known backend.
var ErrUnsupportedProvider = errors.New("unsupported ai provider")
