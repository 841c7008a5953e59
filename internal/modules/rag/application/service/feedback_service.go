package service

import (
	"context"
	"strings"

	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/infrastructure/feedback"
	"StudyLink/pkg/xerr"
)

// FeedbackService appends rated answers to the feedback log.
type FeedbackService interface {
	Log(ctx context.Context, req request.FeedbackRequest) error
}

type feedbackServiceImpl struct {
	logger *feedback.Logger
}

func NewFeedbackService(logger *feedback.Logger) FeedbackService {
	return &feedbackServiceImpl{logger: logger}
}

func (s *feedbackServiceImpl) Log(ctx context.Context, req request.FeedbackRequest) error {
	_ = ctx
	if s.logger == nil {
		return xerr.New(xerr.BadRequest, "feedback log is not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return xerr.New(xerr.BadRequest, "query is required")
	}
	return s.logger.Append(&knowledge.FeedbackRecord{
		Query:         req.Query,
		Context:       req.Context,
		Answer:        req.Answer,
		AnswerRating:  req.AnswerRating,
		ContextRating: req.ContextRating,
	})
}
