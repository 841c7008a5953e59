package embedding

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(384)

	a, err := m.EmbedStrings(ctx, []string{"photosynthesis"})
	require.NoError(t, err)
	b, err := m.EmbedStrings(ctx, []string{"photosynthesis"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.EmbedStrings(ctx, []string{"mitochondria"})
	require.NoError(t, err)
	assert.NotEqual(t, a[0], c[0])
}

func TestMockEmbedderUnitNorm(t *testing.T) {
	m := NewMockEmbedder(384)
	vecs, err := m.EmbedStrings(context.Background(), []string{"some text"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	require.Len(t, vecs[0], 384)

	var norm float64
	for _, v := range vecs[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestTruncateTokens(t *testing.T) {
	short := "just a few words"
	assert.Equal(t, short, TruncateTokens(short, 10))

	long := strings.Repeat("tok ", 600)
	out := TruncateTokens(long, MaxContextTokens)
	assert.Len(t, strings.Fields(out), MaxContextTokens)

	// Head truncation keeps the leading tokens.
	numbered := "one two three four five"
	assert.Equal(t, "one two", TruncateTokens(numbered, 2))

	// Deterministic: truncating twice gives the same text.
	assert.Equal(t, out, TruncateTokens(out, MaxContextTokens))
}

func TestActiveSwap(t *testing.T) {
	v1 := &Versioned{Embedder: NewMockEmbedder(4), Provider: "mock", Version: "v1", Dim: 4}
	active, err := NewActive(v1)
	require.NoError(t, err)
	assert.Equal(t, "v1", active.Current().Version)

	v2 := &Versioned{Embedder: NewMockEmbedder(4), Provider: "mock", Version: "v2", Dim: 4}
	prev, err := active.Swap(v2)
	require.NoError(t, err)
	assert.Equal(t, "v1", prev.Version)
	assert.Equal(t, "v2", active.Current().Version)

	_, err = active.Swap(nil)
	assert.Error(t, err)
	assert.Equal(t, "v2", active.Current().Version)
}

func TestActiveSwapConcurrentReaders(t *testing.T) {
	active, err := NewActive(&Versioned{Embedder: NewMockEmbedder(4), Provider: "mock", Version: "v1", Dim: 4})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				cur := active.Current()
				// Every observed version must be internally consistent.
				require.NotNil(t, cur)
				require.NotNil(t, cur.Embedder)
				require.True(t, cur.Version == "v1" || cur.Version == "v2")
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_, err := active.Swap(&Versioned{Embedder: NewMockEmbedder(4), Provider: "mock", Version: "v2", Dim: 4})
		require.NoError(t, err)
	}
	wg.Wait()
}
