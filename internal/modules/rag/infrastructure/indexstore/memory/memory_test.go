package memory

import (
	"context"
	"testing"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewRawStore()
	require.NoError(t, s.EnsureIndex(ctx, "notes"))

	rec := &knowledge.RawUnit{UnitId: "u1", Content: "hello", SourcePath: "a.txt", Seq: 0, SourceType: "page"}
	require.NoError(t, s.PutRaw(ctx, "notes", rec))

	got, err := s.GetRaw(ctx, "notes", "u1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "notes", got.IndexName)

	_, err = s.GetRaw(ctx, "notes", "missing")
	assert.True(t, xerr.IsNotFound(err))

	_, err = s.GetRaw(ctx, "other", "u1")
	assert.True(t, xerr.IsNotFound(err))
}

func TestRawStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewRawStore()
	require.NoError(t, s.PutRaw(ctx, "notes", &knowledge.RawUnit{UnitId: "u1", Content: "v1"}))
	require.NoError(t, s.PutRaw(ctx, "notes", &knowledge.RawUnit{UnitId: "u1", Content: "v2"}))

	got, err := s.GetRaw(ctx, "notes", "u1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestVectorStoreDimMismatchRejected(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	require.NoError(t, s.EnsureIndex(ctx, "vecs", 3))
	assert.Error(t, s.EnsureIndex(ctx, "vecs", 4))
	require.NoError(t, s.EnsureIndex(ctx, "vecs", 3))

	require.NoError(t, s.PutVector(ctx, "vecs", "a", []float32{1, 0, 0}))
	assert.Error(t, s.PutVector(ctx, "vecs", "b", []float32{1, 0}))
}

func TestVectorStoreSearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	require.NoError(t, s.EnsureIndex(ctx, "vecs", 2))
	require.NoError(t, s.PutVector(ctx, "vecs", "east", []float32{1, 0}))
	require.NoError(t, s.PutVector(ctx, "vecs", "north", []float32{0, 1}))
	require.NoError(t, s.PutVector(ctx, "vecs", "northeast", []float32{1, 1}))

	hits, err := s.Search(ctx, "vecs", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "east", hits[0].ID)
	assert.Equal(t, "northeast", hits[1].ID)
	assert.Equal(t, "north", hits[2].ID)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestVectorStoreSearchStableOrder(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	require.NoError(t, s.EnsureIndex(ctx, "vecs", 2))
	// Identical vectors force a score tie; id order must break it the
	// same way on every call.
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.PutVector(ctx, "vecs", id, []float32{1, 1}))
	}

	first, err := s.Search(ctx, "vecs", []float32{1, 1}, 3)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.Search(ctx, "vecs", []float32{1, 1}, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "b", first[1].ID)
	assert.Equal(t, "c", first[2].ID)
}

func TestVectorStoreSearchTopKTruncation(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	require.NoError(t, s.EnsureIndex(ctx, "vecs", 2))
	require.NoError(t, s.PutVector(ctx, "vecs", "a", []float32{1, 0}))
	require.NoError(t, s.PutVector(ctx, "vecs", "b", []float32{0, 1}))

	hits, err := s.Search(ctx, "vecs", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)

	hits, err = s.Search(ctx, "vecs", []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorStoreSearchUnknownIndex(t *testing.T) {
	s := NewVectorStore()
	_, err := s.Search(context.Background(), "nope", []float32{1}, 1)
	assert.True(t, xerr.IsNotFound(err))
}
