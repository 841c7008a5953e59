package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// MockEmbedder is a deterministic stand-in for a real embedding model:
// the same text always maps to the same unit-length vector. Used when no
// provider is configured and throughout the tests, where exact-match
// queries must rank their own unit first under cosine similarity.
type MockEmbedder struct {
	Dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &MockEmbedder{Dim: dim}
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		result[i] = m.embed(text)
	}
	return result, nil
}

func (m *MockEmbedder) embed(text string) []float64 {
	vec := make([]float64, m.Dim)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	var norm float64
	for j := 0; j < m.Dim; j++ {
		// xorshift64 keeps the sequence deterministic per seed
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[j] = float64(int64(state%2001)-1000) / 1000.0
		norm += vec[j] * vec[j]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for j := range vec {
		vec[j] /= norm
	}
	return vec
}

var _ embedding.Embedder = (*MockEmbedder)(nil)
