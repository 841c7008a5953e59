package service

import (
	"context"
	"fmt"
	"strings"

	"StudyLink/internal/config"
	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/dto/respond"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"
	"StudyLink/pkg/xerr"
)

// QueryService answers retrieval requests: embed, search, resolve.
type QueryService interface {
	Query(ctx context.Context, req request.QueryRequest) (*respond.QueryRespond, error)
}

type queryServiceImpl struct {
	pipeline *pipeline.RetrievePipeline
	conf     *config.Config
}

func NewQueryService(p *pipeline.RetrievePipeline, conf *config.Config) QueryService {
	return &queryServiceImpl{pipeline: p, conf: conf}
}

func (s *queryServiceImpl) Query(ctx context.Context, req request.QueryRequest) (*respond.QueryRespond, error) {
	if s.pipeline == nil {
		return nil, fmt.Errorf("retrieve pipeline is nil")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, xerr.New(xerr.BadRequest, "question is required")
	}

	topK := req.TopK
	if topK <= 0 && s.conf != nil {
		topK = s.conf.RagConfig.DefaultTopK
	}
	rawIdx, vecIdx := resolveIndices(s.conf, req.RawIndex, req.VectorIndex)

	result, err := s.pipeline.Retrieve(ctx, &pipeline.RetrieveRequest{
		Query:       question,
		TopK:        topK,
		RawIndex:    rawIdx,
		VectorIndex: vecIdx,
	})
	if err != nil {
		return nil, err
	}
	return &respond.QueryRespond{
		QueryID:         result.QueryID,
		Question:        result.Query,
		TopK:            result.TopK,
		Units:           result.Units,
		DanglingSkipped: result.DanglingSkipped,
		ModelVersion:    result.ModelVersion,
		DurationMs:      result.DurationMs,
	}, nil
}

func resolveIndices(conf *config.Config, raw, vec string) (string, string) {
	raw = strings.TrimSpace(raw)
	vec = strings.TrimSpace(vec)
	if conf != nil {
		if raw == "" {
			raw = conf.RagConfig.RawIndex
		}
		if vec == "" {
			vec = conf.RagConfig.VectorIndex
		}
	}
	return raw, vec
}
