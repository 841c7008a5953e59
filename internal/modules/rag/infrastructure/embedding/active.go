package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cloudwego/eino/components/embedding"
)

// Versioned couples an embedder with the model version that produced it.
// Vectors from different versions are not comparable; the version is
// recorded with every raw record written so stale eras can be detected.
type Versioned struct {
	embedding.Embedder
	Provider string
	Version  string
	Dim      int
}

// Active is the process-wide handle to the currently active embedding model
// version. The refinement loop swaps in a new Versioned atomically; every
// in-flight EmbedStrings call completes against the version it started
// with, and subsequent calls observe the new one.
type Active struct {
	cur atomic.Pointer[Versioned]
}

func NewActive(v *Versioned) (*Active, error) {
	if v == nil || v.Embedder == nil {
		return nil, fmt.Errorf("nil versioned embedder")
	}
	a := &Active{}
	a.cur.Store(v)
	return a, nil
}

// Current returns the active version. Never nil after construction.
func (a *Active) Current() *Versioned {
	return a.cur.Load()
}

// Swap installs v as the active version and returns the previous one.
func (a *Active) Swap(v *Versioned) (*Versioned, error) {
	if v == nil || v.Embedder == nil {
		return nil, fmt.Errorf("nil versioned embedder")
	}
	return a.cur.Swap(v), nil
}

// EmbedStrings delegates to the active version, so Active itself satisfies
// embedding.Embedder and can be handed to the pipelines directly.
func (a *Active) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	return a.Current().EmbedStrings(ctx, texts, opts...)
}
