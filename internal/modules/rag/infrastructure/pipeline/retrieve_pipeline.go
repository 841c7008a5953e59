package pipeline

import (
	"context"
	"fmt"

	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/internal/modules/rag/infrastructure/embedding"

	"github.com/cloudwego/eino/compose"
)

// maxTopK caps a caller-supplied result width; anything above it is
// clamped rather than rejected.
const maxTopK = 50

// RetrieveRequest asks for the units closest to Query. TopK <= 0 selects
// the single best match.
type RetrieveRequest struct {
	Query       string
	TopK        int
	RawIndex    string
	VectorIndex string
}

// RetrievedUnit is one resolved hit: the raw record joined with its
// similarity score.
type RetrievedUnit struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	SourcePath   string  `json:"source_path"`
	Seq          int     `json:"seq"`
	SourceType   string  `json:"source_type"`
	Score        float32 `json:"score"`
	ModelVersion string  `json:"model_version"`
}

// RetrieveResult may carry fewer than TopK units: dangling vector hits
// (ids with no raw record) are dropped, not refilled.
type RetrieveResult struct {
	QueryID         string          `json:"query_id"`
	Query           string          `json:"query"`
	TopK            int             `json:"top_k"`
	Units           []RetrievedUnit `json:"units"`
	DanglingSkipped int             `json:"dangling_skipped"`
	ModelVersion    string          `json:"model_version"`
	DurationMs      int64           `json:"duration_ms"`
}

// RetrievePipeline embeds the query with the active model and joins
// vector hits back to their raw records.
type RetrievePipeline struct {
	raw    repository.RawStore
	vs     repository.VectorStore
	active *embedding.Active
	r      compose.Runnable[*RetrieveRequest, *RetrieveResult]
}

func NewRetrievePipeline(raw repository.RawStore, vs repository.VectorStore, active *embedding.Active) (*RetrievePipeline, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw store is nil")
	}
	if vs == nil {
		return nil, fmt.Errorf("vector store is nil")
	}
	if active == nil {
		return nil, fmt.Errorf("active embedder is nil")
	}
	p := &RetrievePipeline{raw: raw, vs: vs, active: active}
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Retrieve runs the pipeline for one query.
func (p *RetrievePipeline) Retrieve(ctx context.Context, req *RetrieveRequest) (*RetrieveResult, error) {
	if req == nil {
		return nil, fmt.Errorf("retrieve request is nil")
	}
	return p.r.Invoke(ctx, req)
}

func normalizeTopK(k int) int {
	if k <= 0 {
		return 1
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}
