// Package completion wraps a text-completion collaborator (C3): one
// Complete operation used for three distinct prompts (coreference
// resolution, triple extraction, reply synthesis), in the shape of
// teacher's internal/service/llm: a thin Provider interface plus a Service
// that owns prompt construction and response parsing so providers stay
// dumb string-in/string-out clients.
package completion

import (
	"context"
	"time"
)

// Options configures one completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Result is what a Provider returns for one completion call.
type Result struct {
	Text          string
	InputTokens   int
	OutputTokens  int
	CostEstimate  float64
	LatencyMillis int64
}

// Provider is the raw text-in/text-out collaborator. Implementations must
// not retry internally; retry policy lives in the gobreaker/backoff
// wrapper below so it is uniform across providers.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts Options) (Result, error)
	IsAvailable() bool
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
