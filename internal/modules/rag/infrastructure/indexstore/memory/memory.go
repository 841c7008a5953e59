// Package memory provides in-process implementations of both halves of
// the index store. They back the test suite and deployments that run
// without MySQL/Milvus configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/pkg/xerr"
)

// RawStore is the in-memory raw index: index name -> unit id -> record.
type RawStore struct {
	mu      sync.RWMutex
	indices map[string]map[string]knowledge.RawUnit
}

func NewRawStore() *RawStore {
	return &RawStore{indices: make(map[string]map[string]knowledge.RawUnit)}
}

var _ repository.RawStore = (*RawStore)(nil)

func (s *RawStore) EnsureIndex(ctx context.Context, index string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[index]; !ok {
		s.indices[index] = make(map[string]knowledge.RawUnit)
	}
	return nil
}

func (s *RawStore) PutRaw(ctx context.Context, index string, rec *knowledge.RawUnit) error {
	if rec == nil || rec.UnitId == "" {
		return xerr.New(xerr.BadRequest, "raw record missing unit id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.indices[index]
	if !ok {
		m = make(map[string]knowledge.RawUnit)
		s.indices[index] = m
	}
	r := *rec
	r.IndexName = index
	m[rec.UnitId] = r
	return nil
}

func (s *RawStore) GetRaw(ctx context.Context, index, id string) (*knowledge.RawUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.indices[index]
	if !ok {
		return nil, xerr.ErrNotFound
	}
	r, ok := m[id]
	if !ok {
		return nil, xerr.ErrNotFound
	}
	out := r
	return &out, nil
}

// DeleteRaw removes one record. Tests use it to fabricate dangling vector
// ids; there is no production delete path short of re-ingestion.
func (s *RawStore) DeleteRaw(ctx context.Context, index, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.indices[index]; ok {
		delete(m, id)
	}
}

// VectorStore is the in-memory vector index with brute-force cosine search.
type VectorStore struct {
	mu      sync.RWMutex
	indices map[string]map[string][]float32
	dims    map[string]int
}

func NewVectorStore() *VectorStore {
	return &VectorStore{
		indices: make(map[string]map[string][]float32),
		dims:    make(map[string]int),
	}
}

var _ repository.VectorStore = (*VectorStore)(nil)

// EnsureIndex is idempotent for a matching dimension; a different
// dimension is rejected since mixing dimensions in one index is always a
// caller bug.
func (s *VectorStore) EnsureIndex(ctx context.Context, index string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.dims[index]; ok {
		if existing != dim {
			return fmt.Errorf("index %s exists with dim %d, requested %d", index, existing, dim)
		}
		return nil
	}
	s.indices[index] = make(map[string][]float32)
	s.dims[index] = dim
	return nil
}

func (s *VectorStore) PutVector(ctx context.Context, index, id string, vec []float32) error {
	if id == "" {
		return xerr.New(xerr.BadRequest, "vector missing unit id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.indices[index]
	if !ok {
		m = make(map[string][]float32)
		s.indices[index] = m
		s.dims[index] = len(vec)
	}
	if dim := s.dims[index]; dim > 0 && len(vec) != dim {
		return fmt.Errorf("vector dim mismatch for id=%s: got=%d want=%d", id, len(vec), dim)
	}
	cp := make([]float32, len(vec))
	copy(cp, vec)
	m[id] = cp
	return nil
}

// Search ranks by cosine similarity descending; ties break by id ascending
// so repeated identical calls against an unchanged index return the same
// sequence.
func (s *VectorStore) Search(ctx context.Context, index string, vec []float32, topK int) ([]repository.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.indices[index]
	if !ok {
		return nil, xerr.ErrNotFound
	}

	hits := make([]repository.VectorHit, 0, len(m))
	for id, v := range m {
		hits = append(hits, repository.VectorHit{ID: id, Score: cosine(vec, v)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
