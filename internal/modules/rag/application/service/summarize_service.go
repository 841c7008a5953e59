package service

import (
	"context"
	"fmt"
	"strings"

	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/dto/respond"
	"StudyLink/internal/modules/rag/infrastructure/chunking"
	"StudyLink/internal/modules/rag/infrastructure/llm"
	"StudyLink/pkg/xerr"

	"github.com/cloudwego/eino/schema"
)

const defaultSummaryChunkTokens = 400

// SummarizeService condenses long note text. Oversized input is chunked
// first, each chunk summarized, and the partial summaries merged in one
// final pass.
type SummarizeService interface {
	Summarize(ctx context.Context, req request.SummarizeRequest) (*respond.SummarizeRespond, error)
}

type summarizeServiceImpl struct {
	answerer *llm.Answerer
}

func NewSummarizeService(a *llm.Answerer) SummarizeService {
	return &summarizeServiceImpl{answerer: a}
}

func (s *summarizeServiceImpl) Summarize(ctx context.Context, req request.SummarizeRequest) (*respond.SummarizeRespond, error) {
	if s.answerer == nil {
		return nil, xerr.New(xerr.BadRequest, "answering model is not configured")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, xerr.New(xerr.BadRequest, "text is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultSummaryChunkTokens
	}
	chunks, err := splitText(ctx, text, maxTokens, req.Recursive)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, xerr.New(xerr.BadRequest, "text is empty after chunking")
	}

	if len(chunks) == 1 {
		summary, err := s.summarizeOne(ctx, chunks[0])
		if err != nil {
			return nil, err
		}
		return &respond.SummarizeRespond{Summary: summary, Chunks: 1}, nil
	}

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		p, err := s.summarizeOne(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d: %w", i, err)
		}
		partials = append(partials, p)
	}
	merged, err := s.summarizeOne(ctx, strings.Join(partials, "\n"))
	if err != nil {
		return nil, err
	}
	return &respond.SummarizeRespond{Summary: merged, Chunks: len(chunks)}, nil
}

func (s *summarizeServiceImpl) summarizeOne(ctx context.Context, text string) (string, error) {
	return s.answerer.Answer(ctx, text, "Summarize these notes in a few sentences.")
}

func splitText(ctx context.Context, text string, maxTokens int, recursive bool) ([]string, error) {
	if !recursive {
		return chunking.NewChunker(maxTokens).Chunk(text), nil
	}
	docs, err := chunking.NewRecursiveChunker(maxTokens).ChunkDocuments(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	chunks := make([]string, 0, len(docs))
	for _, d := range docs {
		chunks = append(chunks, d.Content)
	}
	return chunks, nil
}
