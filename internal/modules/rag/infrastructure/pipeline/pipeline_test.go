package pipeline

import (
	"context"
	"errors"
	"testing"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/internal/modules/rag/infrastructure/embedding"
	"StudyLink/internal/modules/rag/infrastructure/indexstore/memory"
	"StudyLink/internal/modules/rag/infrastructure/segmenter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 32

func newTestActive(t *testing.T) *embedding.Active {
	t.Helper()
	active, err := embedding.NewActive(&embedding.Versioned{
		Embedder: embedding.NewMockEmbedder(testDim),
		Provider: "mock",
		Version:  "test-v1",
		Dim:      testDim,
	})
	require.NoError(t, err)
	return active
}

func newTestPipelines(t *testing.T, raw repository.RawStore, vs repository.VectorStore) (*IngestPipeline, *RetrievePipeline) {
	t.Helper()
	active := newTestActive(t)
	ip, err := NewIngestPipeline(raw, vs, active)
	require.NoError(t, err)
	rp, err := NewRetrievePipeline(raw, vs, active)
	require.NoError(t, err)
	return ip, rp
}

func pageDoc(texts ...string) *segmenter.Document {
	return &segmenter.Document{
		Path:   "notes/test.pdf",
		Type:   knowledge.SourcePage,
		Blocks: texts,
	}
}

func TestIngestCrossIndexConsistency(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, rp := newTestPipelines(t, raw, vs)

	res, err := ip.Ingest(ctx, &IngestRequest{
		Doc:         pageDoc("cell membranes", "osmosis", "diffusion"),
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 3, res.Written)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 0, res.Dangling)
	assert.Equal(t, "test-v1", res.ModelVersion)

	// Every vector hit resolves in the raw index and retrieval round-trips
	// the original text.
	out, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query:       "osmosis",
		TopK:        3,
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	require.Len(t, out.Units, 3)
	assert.Equal(t, 0, out.DanglingSkipped)
	assert.Equal(t, "osmosis", out.Units[0].Text)
	for _, u := range out.Units {
		rec, err := raw.GetRaw(ctx, "notes", u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Text, rec.Content)
	}
}

// failingVectorStore fails PutVector for units whose configured call
// ordinal matches, simulating a vector-index outage mid-document.
type failingVectorStore struct {
	repository.VectorStore
	failOnCall int
	calls      int
}

func (f *failingVectorStore) PutVector(ctx context.Context, index, id string, vec []float32) error {
	f.calls++
	if f.calls == f.failOnCall {
		return errors.New("injected vector write failure")
	}
	return f.VectorStore.PutVector(ctx, index, id, vec)
}

func TestIngestPartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := &failingVectorStore{VectorStore: memory.NewVectorStore(), failOnCall: 2}
	active := newTestActive(t)
	ip, err := NewIngestPipeline(raw, vs, active)
	require.NoError(t, err)

	res, err := ip.Ingest(ctx, &IngestRequest{
		Doc:         pageDoc("alpha", "beta", "gamma"),
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	// The failing unit is counted, the rest of the document still lands.
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Dangling)
}

func TestIngestUnknownSourceTypeFails(t *testing.T) {
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, _ := newTestPipelines(t, raw, vs)

	_, err := ip.Ingest(context.Background(), &IngestRequest{
		Doc: &segmenter.Document{
			Path:   "x",
			Type:   knowledge.SourceType("spreadsheet"),
			Blocks: []string{"a"},
		},
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	assert.Error(t, err)
}

func TestIngestTemplateSkipsBadRecords(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, _ := newTestPipelines(t, raw, vs)

	res, err := ip.Ingest(ctx, &IngestRequest{
		Doc: &segmenter.Document{
			Path:     "applications.json",
			Type:     knowledge.SourceTemplate,
			Template: "User {name} applied for {role}",
			Records: []map[string]any{
				{"name": "Ana", "role": "Engineer"},
				{"name": "Ben"},
			},
		},
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Units)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
}

func TestRetrieveDefaultsToTopOne(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, rp := newTestPipelines(t, raw, vs)

	_, err := ip.Ingest(ctx, &IngestRequest{
		Doc:         pageDoc("krebs cycle", "calvin cycle", "water cycle"),
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)

	out, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query:       "calvin cycle",
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TopK)
	require.Len(t, out.Units, 1)
	assert.Equal(t, "calvin cycle", out.Units[0].Text)
}

func TestRetrieveTopKPrefixProperty(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, rp := newTestPipelines(t, raw, vs)

	_, err := ip.Ingest(ctx, &IngestRequest{
		Doc:         pageDoc("one", "two", "three", "four", "five"),
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)

	wide, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query: "three", TopK: 5, RawIndex: "notes", VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	require.Len(t, wide.Units, 5)

	narrow, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query: "three", TopK: 1, RawIndex: "notes", VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	require.Len(t, narrow.Units, 1)
	assert.Equal(t, wide.Units[0].ID, narrow.Units[0].ID)
}

func TestRetrieveSkipsDanglingHits(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	ip, rp := newTestPipelines(t, raw, vs)

	_, err := ip.Ingest(ctx, &IngestRequest{
		Doc:         pageDoc("keep me", "drop me", "keep me too"),
		RawIndex:    "notes",
		VectorIndex: "embeddings",
	})
	require.NoError(t, err)

	full, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query: "drop me", TopK: 3, RawIndex: "notes", VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	require.Len(t, full.Units, 3)
	danglingID := full.Units[0].ID
	raw.DeleteRaw(ctx, "notes", danglingID)

	out, err := rp.Retrieve(ctx, &RetrieveRequest{
		Query: "drop me", TopK: 3, RawIndex: "notes", VectorIndex: "embeddings",
	})
	require.NoError(t, err)
	assert.Len(t, out.Units, 2)
	assert.Equal(t, 1, out.DanglingSkipped)
	for _, u := range out.Units {
		assert.NotEqual(t, danglingID, u.ID)
	}
}

func TestRetrieveEmptyQueryRejected(t *testing.T) {
	raw := memory.NewRawStore()
	vs := memory.NewVectorStore()
	_, rp := newTestPipelines(t, raw, vs)

	_, err := rp.Retrieve(context.Background(), &RetrieveRequest{
		Query: "   ", RawIndex: "notes", VectorIndex: "embeddings",
	})
	assert.Error(t, err)
}

func TestNormalizeTopK(t *testing.T) {
	assert.Equal(t, 1, normalizeTopK(0))
	assert.Equal(t, 1, normalizeTopK(-3))
	assert.Equal(t, 7, normalizeTopK(7))
	assert.Equal(t, maxTopK, normalizeTopK(500))
}
