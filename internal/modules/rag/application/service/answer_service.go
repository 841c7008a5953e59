package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StudyLink/internal/config"
	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/dto/respond"
	"StudyLink/internal/modules/rag/infrastructure/llm"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"
	"StudyLink/pkg/xerr"
)

// AnswerService chains retrieval and the answering model: the retrieved
// unit texts become the context the model answers from.
type AnswerService interface {
	Answer(ctx context.Context, req request.AnswerRequest) (*respond.AnswerRespond, error)
}

type answerServiceImpl struct {
	pipeline *pipeline.RetrievePipeline
	answerer *llm.Answerer
	conf     *config.Config
}

func NewAnswerService(p *pipeline.RetrievePipeline, a *llm.Answerer, conf *config.Config) AnswerService {
	return &answerServiceImpl{pipeline: p, answerer: a, conf: conf}
}

func (s *answerServiceImpl) Answer(ctx context.Context, req request.AnswerRequest) (*respond.AnswerRespond, error) {
	if s.pipeline == nil {
		return nil, fmt.Errorf("retrieve pipeline is nil")
	}
	if s.answerer == nil {
		return nil, xerr.New(xerr.BadRequest, "answering model is not configured")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, xerr.New(xerr.BadRequest, "question is required")
	}

	start := time.Now()
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

	contextText := joinContext(result.Units)
	answer, err := s.answerer.Answer(ctx, contextText, question)
	if err != nil {
		return nil, err
	}

	return &respond.AnswerRespond{
		QueryID:    result.QueryID,
		Question:   question,
		Answer:     answer,
		Context:    contextText,
		Units:      result.Units,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func joinContext(units []pipeline.RetrievedUnit) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n\n")
}
