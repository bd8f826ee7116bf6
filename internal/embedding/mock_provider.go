package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// MockProvider generates deterministic pseudo-embeddings from a SHA-256
// stream of (model, text), for tests and local runs without a configured
// embedding collaborator. Determinism per (model, text) matches §4.C2's
// requirement without needing a real model.
type MockProvider struct {
	model     string
	dimension int
}

// NewMockProvider returns a deterministic mock embedder.
func NewMockProvider(model string, dimension int) *MockProvider {
	return &MockProvider{model: model, dimension: dimension}
}

func (m *MockProvider) Dimension() int { return m.dimension }

func (m *MockProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return m.vectorFor(text), nil
}

func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *MockProvider) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)
	seed := []byte(m.model + "\x00" + text)
	block := sha256.Sum256(seed)
	for i := range vec {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		offset := (i % len(block)) &^ 3
		if offset+4 > len(block) {
			offset = len(block) - 4
		}
		bits := binary.BigEndian.Uint32(block[offset : offset+4])
		// map to [-1, 1]
		vec[i] = float32(bits)/float32(1<<31) - 1
	}
	return vec
}
