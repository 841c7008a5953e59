package pipeline

import (
	"context"
	"fmt"
	"time"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/infrastructure/embedding"
	"StudyLink/internal/modules/rag/infrastructure/segmenter"
	"StudyLink/pkg/util"
	"StudyLink/pkg/zlog"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"
)

// ingestState is handed from node to node. Nodes that find Err set pass
// the state through untouched so the failure surfaces once, in BuildResult.
type ingestState struct {
	Req          *IngestRequest
	Units        []knowledge.Unit
	Skipped      int
	Written      int
	Failed       int
	Dangling     int
	ModelVersion string
	Start        time.Time
	SegmentMs    int64
	EmbedMs      int64
	WriteMs      int64
	Err          error
}

// buildGraph wires Validate → Segment → EmbedWrite → BuildResult.
func (p *IngestPipeline) buildGraph(ctx context.Context) (compose.Runnable[*IngestRequest, *IngestResult], error) {
	const (
		Validate    = "Validate"
		Segment     = "Segment"
		EmbedWrite  = "EmbedWrite"
		BuildResult = "BuildResult"
	)
	g := compose.NewGraph[*IngestRequest, *IngestResult]()
	_ = g.AddLambdaNode(Validate, compose.InvokableLambdaWithOption(p.validateNode), compose.WithNodeName(Validate))
	_ = g.AddLambdaNode(Segment, compose.InvokableLambdaWithOption(p.segmentNode), compose.WithNodeName(Segment))
	_ = g.AddLambdaNode(EmbedWrite, compose.InvokableLambdaWithOption(p.embedWriteNode), compose.WithNodeName(EmbedWrite))
	_ = g.AddLambdaNode(BuildResult, compose.InvokableLambdaWithOption(p.buildResultNode), compose.WithNodeName(BuildResult))
	_ = g.AddEdge(compose.START, Validate)
	_ = g.AddEdge(Validate, Segment)
	_ = g.AddEdge(Segment, EmbedWrite)
	_ = g.AddEdge(EmbedWrite, BuildResult)
	_ = g.AddEdge(BuildResult, compose.END)
	return g.Compile(ctx, compose.WithGraphName("IngestPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (p *IngestPipeline) validateNode(ctx context.Context, req *IngestRequest, _ ...any) (*ingestState, error) {
	st := &ingestState{Req: req, Start: time.Now()}
	if req == nil || req.Doc == nil {
		st.Err = fmt.Errorf("nil ingest request")
		return st, nil
	}
	if !req.Doc.Type.Valid() {
		st.Err = fmt.Errorf("unknown source type: %s", req.Doc.Type)
		return st, nil
	}
	req.RawIndex = normalizeIndexName(req.RawIndex)
	req.VectorIndex = normalizeIndexName(req.VectorIndex)
	if req.RawIndex == "" || req.VectorIndex == "" {
		st.Err = fmt.Errorf("missing raw/vector index name")
		return st, nil
	}

	ver := p.active.Current()
	st.ModelVersion = ver.Version

	if err := p.raw.EnsureIndex(ctx, req.RawIndex); err != nil {
		st.Err = err
		return st, nil
	}
	if err := p.vs.EnsureIndex(ctx, req.VectorIndex, ver.Dim); err != nil {
		st.Err = err
		return st, nil
	}
	return st, nil
}

func (p *IngestPipeline) segmentNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	_ = ctx
	if st == nil {
		return &ingestState{Err: fmt.Errorf("nil state"), Start: time.Now()}, nil
	}
	if st.Err != nil {
		return st, nil
	}
	segStart := time.Now()
	seg, err := segmenter.ForType(st.Req.Doc.Type)
	if err != nil {
		st.Err = err
		return st, nil
	}
	units, skipped := seg.Segment(st.Req.Doc)
	st.Units = units
	st.Skipped = len(skipped)
	for _, serr := range skipped {
		zlog.Warn("unit skipped during segmentation",
			zap.String("source_path", st.Req.Doc.Path),
			zap.String("source_type", string(st.Req.Doc.Type)),
			zap.Error(serr))
	}
	st.SegmentMs = time.Since(segStart).Milliseconds()
	return st, nil
}

// embedWriteNode writes each unit to both indices under a fresh shared id.
// Units are processed in document order; a failure on one unit is counted
// and the loop moves on. The job is abortable between units via ctx.
func (p *IngestPipeline) embedWriteNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st == nil {
		return &ingestState{Err: fmt.Errorf("nil state"), Start: time.Now()}, nil
	}
	if st.Err != nil {
		return st, nil
	}

	ver := p.active.Current()
	now := time.Now()

	for _, u := range st.Units {
		if err := ctx.Err(); err != nil {
			st.Err = err
			break
		}

		embStart := time.Now()
		text := embedding.TruncateTokens(u.Text, embedding.MaxContextTokens)
		vecs, err := ver.EmbedStrings(ctx, []string{text})
		st.EmbedMs += time.Since(embStart).Milliseconds()
		if err != nil || len(vecs) == 0 {
			st.Failed++
			zlog.Warn("unit embedding failed",
				zap.String("source_path", u.SourcePath),
				zap.Int("seq", u.Seq),
				zap.Error(err))
			continue
		}
		vec64 := vecs[0]
		if len(vec64) != ver.Dim {
			st.Failed++
			zlog.Warn("unit embedding dim mismatch",
				zap.String("source_path", u.SourcePath),
				zap.Int("seq", u.Seq),
				zap.Int("got", len(vec64)),
				zap.Int("want", ver.Dim))
			continue
		}
		vec32 := make([]float32, len(vec64))
		for i := range vec64 {
			vec32[i] = float32(vec64[i])
		}

		id := unitID(u)
		writeStart := time.Now()
		rec := &knowledge.RawUnit{
			UnitId:       id,
			Content:      u.Text,
			SourcePath:   u.SourcePath,
			Seq:          u.Seq,
			SourceType:   string(u.Type),
			ModelVersion: ver.Version,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := p.raw.PutRaw(ctx, st.Req.RawIndex, rec); err != nil {
			st.Failed++
			st.WriteMs += time.Since(writeStart).Milliseconds()
			zlog.Warn("raw write failed",
				zap.String("unit_id", id),
				zap.String("source_path", u.SourcePath),
				zap.Error(err))
			continue
		}
		if err := p.vs.PutVector(ctx, st.Req.VectorIndex, id, vec32); err != nil {
			st.Failed++
			st.Dangling++
			st.WriteMs += time.Since(writeStart).Milliseconds()
			zlog.Warn("vector write failed, raw record left dangling",
				zap.String("unit_id", id),
				zap.String("raw_index", st.Req.RawIndex),
				zap.String("vector_index", st.Req.VectorIndex),
				zap.Error(err))
			continue
		}
		st.WriteMs += time.Since(writeStart).Milliseconds()
		st.Written++
	}
	return st, nil
}

func (p *IngestPipeline) buildResultNode(ctx context.Context, st *ingestState, _ ...any) (*IngestResult, error) {
	_ = ctx
	if st == nil {
		return nil, fmt.Errorf("nil state")
	}
	res := &IngestResult{
		Units:        len(st.Units),
		Written:      st.Written,
		Skipped:      st.Skipped,
		Failed:       st.Failed,
		Dangling:     st.Dangling,
		ModelVersion: st.ModelVersion,
		SegmentMs:    st.SegmentMs,
		EmbedMs:      st.EmbedMs,
		WriteMs:      st.WriteMs,
		DurationMs:   time.Since(st.Start).Milliseconds(),
	}
	if st.Req != nil && st.Req.Doc != nil {
		res.SourcePath = st.Req.Doc.Path
		res.SourceType = string(st.Req.Doc.Type)
	}
	zlog.Info("ingest done",
		zap.String("source_path", res.SourcePath),
		zap.String("source_type", res.SourceType),
		zap.Int("units", res.Units),
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("dangling", res.Dangling),
		zap.String("model_version", res.ModelVersion),
		zap.Int64("ms", res.DurationMs))
	return res, st.Err
}

// unitID generates the shared identifier for both index entries of a unit:
// a fresh uuid plus a source-type suffix that keeps ids self-describing in
// store dumps.
func unitID(u knowledge.Unit) string {
	base := util.GenerateUUID()
	switch u.Type {
	case knowledge.SourcePage:
		return fmt.Sprintf("%s_page_%d", base, u.Seq)
	case knowledge.SourceParagraph:
		return fmt.Sprintf("%s_para_%d", base, u.Seq)
	case knowledge.SourceLecture:
		return fmt.Sprintf("%s_lec_%d", base, u.Seq)
	case knowledge.SourceTemplate:
		return base + "_app"
	default:
		return base
	}
}
