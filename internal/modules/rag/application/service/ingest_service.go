package service

import (
	"context"
	"fmt"
	"strings"

	"StudyLink/internal/config"
	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/dto/respond"
	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/infrastructure/mq"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"
	"StudyLink/internal/modules/rag/infrastructure/queue"
	"StudyLink/internal/modules/rag/infrastructure/segmenter"
	"StudyLink/pkg/xerr"
)

// IngestService runs the dual-index write path, either inline or via the
// broker when one is wired.
type IngestService interface {
	Ingest(ctx context.Context, req request.IngestRequest) (*respond.IngestRespond, error)
	IngestAsync(ctx context.Context, req request.IngestRequest) (*respond.AsyncIngestRespond, error)
}

type ingestServiceImpl struct {
	pipeline *pipeline.IngestPipeline
	pub      mq.Publisher
	topic    string
	conf     *config.Config
}

// NewIngestService wires the service. pub may be nil; async requests then
// fail with a clear error instead of silently running inline.
func NewIngestService(p *pipeline.IngestPipeline, pub mq.Publisher, conf *config.Config) IngestService {
	topic := ""
	if conf != nil {
		topic = conf.KafkaConfig.IngestTopic
	}
	return &ingestServiceImpl{pipeline: p, pub: pub, topic: topic, conf: conf}
}

func (s *ingestServiceImpl) Ingest(ctx context.Context, req request.IngestRequest) (*respond.IngestRespond, error) {
	if s.pipeline == nil {
		return nil, fmt.Errorf("ingest pipeline is nil")
	}
	doc, rawIdx, vecIdx, err := s.buildDoc(req)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Ingest(ctx, &pipeline.IngestRequest{
		Doc:         doc,
		RawIndex:    rawIdx,
		VectorIndex: vecIdx,
	})
	if err != nil {
		return nil, err
	}
	return &respond.IngestRespond{
		SourcePath:   result.SourcePath,
		SourceType:   result.SourceType,
		Units:        result.Units,
		Written:      result.Written,
		Skipped:      result.Skipped,
		Failed:       result.Failed,
		Dangling:     result.Dangling,
		ModelVersion: result.ModelVersion,
		DurationMs:   result.DurationMs,
	}, nil
}

func (s *ingestServiceImpl) IngestAsync(ctx context.Context, req request.IngestRequest) (*respond.AsyncIngestRespond, error) {
	if s.pub == nil || strings.TrimSpace(s.topic) == "" {
		return nil, xerr.New(xerr.BadRequest, "async ingestion is not configured")
	}
	doc, rawIdx, vecIdx, err := s.buildDoc(req)
	if err != nil {
		return nil, err
	}

	taskID, err := queue.EnqueueIngest(ctx, s.pub, s.topic, &queue.IngestTask{
		SourcePath:  doc.Path,
		SourceType:  string(doc.Type),
		Blocks:      doc.Blocks,
		Template:    doc.Template,
		Records:     doc.Records,
		RawIndex:    rawIdx,
		VectorIndex: vecIdx,
	})
	if err != nil {
		return nil, err
	}
	return &respond.AsyncIngestRespond{TaskID: taskID}, nil
}

func (s *ingestServiceImpl) buildDoc(req request.IngestRequest) (*segmenter.Document, string, string, error) {
	st := knowledge.SourceType(strings.TrimSpace(req.SourceType))
	if !st.Valid() {
		return nil, "", "", xerr.New(xerr.BadRequest, "unknown source type: "+req.SourceType)
	}
	path := strings.TrimSpace(req.SourcePath)
	if path == "" {
		return nil, "", "", xerr.New(xerr.BadRequest, "source_path is required")
	}
	if st == knowledge.SourceTemplate {
		if strings.TrimSpace(req.Template) == "" {
			return nil, "", "", xerr.New(xerr.BadRequest, "template is required for templated ingestion")
		}
	} else if len(req.Blocks) == 0 {
		return nil, "", "", xerr.New(xerr.BadRequest, "blocks are required for this source type")
	}

	rawIdx, vecIdx := resolveIndices(s.conf, req.RawIndex, req.VectorIndex)
	return &segmenter.Document{
		Path:     path,
		Type:     st,
		Blocks:   req.Blocks,
		Template: req.Template,
		Records:  req.Records,
	}, rawIdx, vecIdx, nil
}
