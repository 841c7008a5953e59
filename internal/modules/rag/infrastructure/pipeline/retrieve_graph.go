package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/pkg/util"
	"StudyLink/pkg/xerr"
	"StudyLink/pkg/zlog"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"
)

type retrieveState struct {
	Req          *RetrieveRequest
	QueryID      string
	QueryVec     []float32
	Hits         []repository.VectorHit
	Units        []RetrievedUnit
	Dangling     int
	ModelVersion string
	Start        time.Time
	Err          error
}

func (p *RetrievePipeline) buildGraph(ctx context.Context) (compose.Runnable[*RetrieveRequest, *RetrieveResult], error) {
	const (
		Validate    = "Validate"
		EmbedQuery  = "EmbedQuery"
		SearchVec   = "SearchVector"
		ResolveRaw  = "ResolveRaw"
		BuildResult = "BuildResult"
	)
	g := compose.NewGraph[*RetrieveRequest, *RetrieveResult]()
	_ = g.AddLambdaNode(Validate, compose.InvokableLambdaWithOption(p.validateNode), compose.WithNodeName(Validate))
	_ = g.AddLambdaNode(EmbedQuery, compose.InvokableLambdaWithOption(p.embedQueryNode), compose.WithNodeName(EmbedQuery))
	_ = g.AddLambdaNode(SearchVec, compose.InvokableLambdaWithOption(p.searchVectorNode), compose.WithNodeName(SearchVec))
	_ = g.AddLambdaNode(ResolveRaw, compose.InvokableLambdaWithOption(p.resolveRawNode), compose.WithNodeName(ResolveRaw))
	_ = g.AddLambdaNode(BuildResult, compose.InvokableLambdaWithOption(p.buildResultNode), compose.WithNodeName(BuildResult))
	_ = g.AddEdge(compose.START, Validate)
	_ = g.AddEdge(Validate, EmbedQuery)
	_ = g.AddEdge(EmbedQuery, SearchVec)
	_ = g.AddEdge(SearchVec, ResolveRaw)
	_ = g.AddEdge(ResolveRaw, BuildResult)
	_ = g.AddEdge(BuildResult, compose.END)
	return g.Compile(ctx, compose.WithGraphName("RetrievePipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (p *RetrievePipeline) validateNode(ctx context.Context, req *RetrieveRequest, _ ...any) (*retrieveState, error) {
	_ = ctx
	st := &retrieveState{Req: req, Start: time.Now(), QueryID: util.GenerateShortUUID()}
	if req == nil {
		st.Err = fmt.Errorf("nil retrieve request")
		return st, nil
	}
	if strings.TrimSpace(req.Query) == "" {
		st.Err = xerr.New(xerr.BadRequest, "empty query")
		return st, nil
	}
	req.TopK = normalizeTopK(req.TopK)
	req.RawIndex = normalizeIndexName(req.RawIndex)
	req.VectorIndex = normalizeIndexName(req.VectorIndex)
	if req.RawIndex == "" || req.VectorIndex == "" {
		st.Err = fmt.Errorf("missing raw/vector index name")
		return st, nil
	}
	st.ModelVersion = p.active.Current().Version
	return st, nil
}

func (p *RetrievePipeline) embedQueryNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st == nil {
		return &retrieveState{Err: fmt.Errorf("nil state"), Start: time.Now()}, nil
	}
	if st.Err != nil {
		return st, nil
	}
	ver := p.active.Current()
	vecs, err := ver.EmbedStrings(ctx, []string{st.Req.Query})
	if err != nil {
		st.Err = err
		return st, nil
	}
	if len(vecs) == 0 || len(vecs[0]) != ver.Dim {
		st.Err = fmt.Errorf("query embedding dim mismatch: got=%d want=%d", lenFirst(vecs), ver.Dim)
		return st, nil
	}
	st.QueryVec = make([]float32, len(vecs[0]))
	for i, v := range vecs[0] {
		st.QueryVec[i] = float32(v)
	}
	return st, nil
}

func (p *RetrievePipeline) searchVectorNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st == nil {
		return &retrieveState{Err: fmt.Errorf("nil state"), Start: time.Now()}, nil
	}
	if st.Err != nil {
		return st, nil
	}
	hits, err := p.vs.Search(ctx, st.Req.VectorIndex, st.QueryVec, st.Req.TopK)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Hits = hits
	return st, nil
}

// resolveRawNode joins vector hits with their raw records. A hit whose id
// has no raw record is a known inconsistency (a crashed or failed ingest)
// and is dropped with a warning instead of failing the query.
func (p *RetrievePipeline) resolveRawNode(ctx context.Context, st *retrieveState, _ ...any) (*retrieveState, error) {
	if st == nil {
		return &retrieveState{Err: fmt.Errorf("nil state"), Start: time.Now()}, nil
	}
	if st.Err != nil {
		return st, nil
	}
	st.Units = make([]RetrievedUnit, 0, len(st.Hits))
	for _, h := range st.Hits {
		rec, err := p.raw.GetRaw(ctx, st.Req.RawIndex, h.ID)
		if xerr.IsNotFound(err) {
			st.Dangling++
			zlog.Warn("vector hit without raw record, skipping",
				zap.String("unit_id", h.ID),
				zap.String("raw_index", st.Req.RawIndex),
				zap.String("vector_index", st.Req.VectorIndex))
			continue
		}
		if err != nil {
			st.Err = err
			return st, nil
		}
		if rec.ModelVersion != st.ModelVersion {
			zlog.Warn("hit embedded under an older model version",
				zap.String("unit_id", h.ID),
				zap.String("unit_version", rec.ModelVersion),
				zap.String("active_version", st.ModelVersion))
		}
		st.Units = append(st.Units, RetrievedUnit{
			ID:           rec.UnitId,
			Text:         rec.Content,
			SourcePath:   rec.SourcePath,
			Seq:          rec.Seq,
			SourceType:   rec.SourceType,
			Score:        h.Score,
			ModelVersion: rec.ModelVersion,
		})
	}
	return st, nil
}

func (p *RetrievePipeline) buildResultNode(ctx context.Context, st *retrieveState, _ ...any) (*RetrieveResult, error) {
	_ = ctx
	if st == nil {
		return nil, fmt.Errorf("nil state")
	}
	if st.Err != nil {
		return nil, st.Err
	}
	res := &RetrieveResult{
		QueryID:         st.QueryID,
		Query:           st.Req.Query,
		TopK:            st.Req.TopK,
		Units:           st.Units,
		DanglingSkipped: st.Dangling,
		ModelVersion:    st.ModelVersion,
		DurationMs:      time.Since(st.Start).Milliseconds(),
	}
	zlog.Info("retrieve done",
		zap.String("query_id", res.QueryID),
		zap.Int("top_k", res.TopK),
		zap.Int("units", len(res.Units)),
		zap.Int("dangling_skipped", res.DanglingSkipped),
		zap.Int64("ms", res.DurationMs))
	return res, nil
}

func lenFirst(vecs [][]float64) int {
	if len(vecs) == 0 {
		return 0
	}
	return len(vecs[0])
}
