package completion

import (
	"context"
	"strings"
	"time"
)

// MockProvider answers deterministically from prompt content, in the style
// of teacher's llm.MockProvider, for tests and local runs without a
// configured completion collaborator.
type MockProvider struct {
	available bool
}

// NewMockProvider returns an available MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

func (m *MockProvider) IsAvailable() bool { return m.available }

// SetAvailable lets tests simulate the provider going offline.
func (m *MockProvider) SetAvailable(available bool) { m.available = available }

func (m *MockProvider) Complete(ctx context.Context, prompt string, opts Options) (Result, error) {
	start := time.Now()
	var text string
	switch {
	case strings.Contains(prompt, "Resolve the ambiguous mention"):
		text = `{"entity_id": null, "confidence": 0.0, "reasoning": "mock provider: no coreference model configured"}`
	case strings.Contains(prompt, "Extract subject-predicate-object facts"):
		text = `[]`
	default:
		text = "I don't have a completion model configured, so I can't generate a reply beyond what was retrieved."
	}
	return Result{
		Text:          text,
		InputTokens:   len(prompt) / 4,
		OutputTokens:  len(text) / 4,
		LatencyMillis: elapsedMillis(start),
	}, nil
}
