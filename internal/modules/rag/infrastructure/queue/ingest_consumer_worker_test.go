package queue

import (
	"context"
	"encoding/json"
	"testing"

	"StudyLink/internal/modules/rag/infrastructure/embedding"
	"StudyLink/internal/modules/rag/infrastructure/indexstore/memory"
	"StudyLink/internal/modules/rag/infrastructure/mq"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T) (*IngestConsumerWorker, *memory.VectorStore) {
	t.Helper()
	active, err := embedding.NewActive(&embedding.Versioned{
		Embedder: embedding.NewMockEmbedder(16),
		Provider: "mock",
		Version:  "test",
		Dim:      16,
	})
	require.NoError(t, err)
	vs := memory.NewVectorStore()
	p, err := pipeline.NewIngestPipeline(memory.NewRawStore(), vs, active)
	require.NoError(t, err)
	return NewIngestConsumerWorker(nil, p), vs
}

func taskMessage(t *testing.T, task IngestTask) mq.Message {
	t.Helper()
	value, err := json.Marshal(task)
	require.NoError(t, err)
	return mq.Message{Topic: "ingest", Value: value}
}

func TestHandleProcessesTask(t *testing.T) {
	ctx := context.Background()
	w, vs := newTestWorker(t)

	msg := taskMessage(t, IngestTask{
		TaskID:      "task-1",
		SourcePath:  "notes/a.txt",
		SourceType:  "page",
		Blocks:      []string{"hello world"},
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, w.Handle(ctx, msg))

	hits, err := vs.Search(ctx, "embeddings", make([]float32, 16), 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestHandleDeduplicatesByTaskID(t *testing.T) {
	ctx := context.Background()
	w, vs := newTestWorker(t)

	msg := taskMessage(t, IngestTask{
		TaskID:      "task-dup",
		SourcePath:  "notes/a.txt",
		SourceType:  "page",
		Blocks:      []string{"same document"},
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, w.Handle(ctx, msg))
	require.NoError(t, w.Handle(ctx, msg))

	// Reprocessing would mint fresh unit ids, so a second pass would
	// double the vector count.
	hits, err := vs.Search(ctx, "embeddings", make([]float32, 16), 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestHandleDropsMalformedMessage(t *testing.T) {
	w, _ := newTestWorker(t)
	// Malformed payloads are acknowledged, not retried forever.
	assert.NoError(t, w.Handle(context.Background(), mq.Message{Value: []byte("{not json")}))
	assert.NoError(t, w.Handle(context.Background(), mq.Message{Value: []byte(`{"source_path":"x"}`)}))
}
