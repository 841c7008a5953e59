package pipeline

import (
	"context"
	"fmt"
	"strings"

	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/internal/modules/rag/infrastructure/embedding"
	"StudyLink/internal/modules/rag/infrastructure/segmenter"

	"github.com/cloudwego/eino/compose"
)

// IngestRequest carries one parsed document plus the corpus indices it
// lands in.
type IngestRequest struct {
	Doc         *segmenter.Document
	RawIndex    string
	VectorIndex string
}

// IngestResult reports what happened to each unit of the document. Written
// counts units present in both indices; Dangling counts raw records whose
// vector write failed (there is no rollback — see the retriever's
// tolerance path for the read-side handling).
type IngestResult struct {
	SourcePath   string `json:"source_path"`
	SourceType   string `json:"source_type"`
	Units        int    `json:"units"`
	Written      int    `json:"written"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Dangling     int    `json:"dangling"`
	ModelVersion string `json:"model_version"`
	DurationMs   int64  `json:"duration_ms"`
	SegmentMs    int64  `json:"segment_ms"`
	EmbedMs      int64  `json:"embed_ms"`
	WriteMs      int64  `json:"write_ms"`
}

// IngestPipeline is the dual-index writer: segment, embed, then write the
// raw record and the vector record under one freshly generated id. A
// failing unit never aborts the rest of the document.
type IngestPipeline struct {
	raw    repository.RawStore
	vs     repository.VectorStore
	active *embedding.Active
	r      compose.Runnable[*IngestRequest, *IngestResult]
}

func NewIngestPipeline(raw repository.RawStore, vs repository.VectorStore, active *embedding.Active) (*IngestPipeline, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw store is nil")
	}
	if vs == nil {
		return nil, fmt.Errorf("vector store is nil")
	}
	if active == nil {
		return nil, fmt.Errorf("active embedder is nil")
	}
	p := &IngestPipeline{raw: raw, vs: vs, active: active}
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Ingest runs the pipeline for one document.
func (p *IngestPipeline) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if req == nil {
		return nil, fmt.Errorf("ingest request is nil")
	}
	return p.r.Invoke(ctx, req)
}

func normalizeIndexName(name string) string {
	return strings.TrimSpace(name)
}
