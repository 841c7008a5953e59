package service

import (
	"context"
	"fmt"
	"time"

	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/dto/respond"
	"StudyLink/internal/modules/rag/infrastructure/refine"
)

// RefineService triggers one refinement run over the current feedback
// snapshot. Concurrent triggers surface RefineBusy to the caller.
type RefineService interface {
	Refine(ctx context.Context, req request.RefineRequest) (*respond.RefineRespond, error)
}

type refineServiceImpl struct {
	refiner *refine.Refiner
}

func NewRefineService(r *refine.Refiner) RefineService {
	return &refineServiceImpl{refiner: r}
}

func (s *refineServiceImpl) Refine(ctx context.Context, req request.RefineRequest) (*respond.RefineRespond, error) {
	if s.refiner == nil {
		return nil, fmt.Errorf("refiner is nil")
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	result, err := s.refiner.Refine(ctx, seed)
	if err != nil {
		return nil, err
	}
	return &respond.RefineRespond{
		Records:    result.Records,
		Pairs:      result.Pairs,
		Version:    result.Version,
		ModelPath:  result.ModelPath,
		DurationMs: result.DurationMs,
	}, nil
}
