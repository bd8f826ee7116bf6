// Package embedding wraps a text-embedding collaborator (C2): fixed-length
// real vectors for text, batched and deterministic per (model, text), in
// the resty-based HTTP-client shape the rest of the pack uses for LLM
// collaborators (no embedding client exists in the teacher repo itself).
package embedding

import (
	"context"

	apperrors "memorycore/pkg/errors"
)

// Embedder produces embedding vectors for text. Implementations must be
// deterministic per (model, text) and return vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// ValidateDimension checks a raw vector against the configured dimension,
// per §4.C2's "mismatches are Validation errors".
func ValidateDimension(vec []float32, dimension int) error {
	if len(vec) != dimension {
		return apperrors.NewValidation("embedding: vector dimension mismatch")
	}
	return nil
}
