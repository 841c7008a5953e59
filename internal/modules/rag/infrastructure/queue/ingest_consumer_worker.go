// Package queue carries ingestion jobs through the broker: handlers
// enqueue documents, the worker drains them into the ingest pipeline.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/infrastructure/mq"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"
	"StudyLink/internal/modules/rag/infrastructure/segmenter"
	"StudyLink/pkg/util"
	"StudyLink/pkg/zlog"

	"go.uber.org/zap"
)

// IngestTask is the wire form of one queued document.
type IngestTask struct {
	TaskID      string           `json:"task_id"`
	SourcePath  string           `json:"source_path"`
	SourceType  string           `json:"source_type"`
	Blocks      []string         `json:"blocks,omitempty"`
	Template    string           `json:"template,omitempty"`
	Records     []map[string]any `json:"records,omitempty"`
	RawIndex    string           `json:"raw_index"`
	VectorIndex string           `json:"vector_index"`
}

// EnqueueIngest publishes one task, keyed by source path so repeated
// ingests of the same document stay ordered on one partition.
func EnqueueIngest(ctx context.Context, pub mq.Publisher, topic string, task *IngestTask) (string, error) {
	if pub == nil {
		return "", errors.New("publisher is nil")
	}
	if task == nil {
		return "", errors.New("nil ingest task")
	}
	if task.TaskID == "" {
		task.TaskID = util.GenerateUUID()
	}
	value, err := json.Marshal(task)
	if err != nil {
		return "", err
	}
	res, err := pub.Publish(ctx, mq.Message{
		Topic: topic,
		Key:   []byte(task.SourcePath),
		Value: value,
	})
	if err != nil {
		return "", err
	}
	zlog.Info("ingest task enqueued",
		zap.String("task_id", task.TaskID),
		zap.String("source_path", task.SourcePath),
		zap.Int32("partition", res.Partition),
		zap.Int64("offset", res.Offset))
	return task.TaskID, nil
}

// seenLimit bounds the dedup set; beyond it the oldest entries are
// dropped wholesale, trading exactness for bounded memory.
const seenLimit = 4096

// IngestConsumerWorker drains queued tasks into the pipeline. Delivery
// is at-least-once; a task id seen before is acknowledged without
// reprocessing.
type IngestConsumerWorker struct {
	consumer mq.Consumer
	pipeline *pipeline.IngestPipeline

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewIngestConsumerWorker(consumer mq.Consumer, p *pipeline.IngestPipeline) *IngestConsumerWorker {
	return &IngestConsumerWorker{
		consumer: consumer,
		pipeline: p,
		seen:     make(map[string]struct{}),
	}
}

func (w *IngestConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.pipeline == nil {
		return errors.New("pipeline is nil")
	}
	return w.consumer.Run(ctx, w)
}

func (w *IngestConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var task IngestTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		zlog.Warn("ingest consumer dropping malformed task",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return nil
	}
	if strings.TrimSpace(task.TaskID) == "" {
		zlog.Warn("ingest consumer dropping task without id",
			zap.String("source_path", task.SourcePath))
		return nil
	}
	if !w.markSeen(task.TaskID) {
		return nil
	}

	res, err := w.pipeline.Ingest(ctx, &pipeline.IngestRequest{
		Doc: &segmenter.Document{
			Path:     task.SourcePath,
			Type:     knowledge.SourceType(task.SourceType),
			Blocks:   task.Blocks,
			Template: task.Template,
			Records:  task.Records,
		},
		RawIndex:    task.RawIndex,
		VectorIndex: task.VectorIndex,
	})
	if err != nil {
		w.unmarkSeen(task.TaskID)
		zlog.Warn("ingest task failed",
			zap.String("task_id", task.TaskID),
			zap.String("source_path", task.SourcePath),
			zap.Error(err))
		return err
	}

	zlog.Info("ingest task done",
		zap.String("task_id", task.TaskID),
		zap.String("source_path", task.SourcePath),
		zap.Int("written", res.Written),
		zap.Int("failed", res.Failed))
	return nil
}

func (w *IngestConsumerWorker) markSeen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return false
	}
	if len(w.seen) >= seenLimit {
		w.seen = make(map[string]struct{})
	}
	w.seen[id] = struct{}{}
	return true
}

func (w *IngestConsumerWorker) unmarkSeen(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.seen, id)
}
