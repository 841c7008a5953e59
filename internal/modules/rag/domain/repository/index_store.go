package repository

import (
	"context"

	"StudyLink/internal/modules/rag/domain/knowledge"
)

// RawStore and VectorStore are the domain-level facade over the external
// index engine. Application and pipeline code depend on these interfaces
// only; infrastructure provides Milvus/MySQL implementations plus an
// in-memory one for tests and storage-free runs.
//
// Both stores key records by the shared unit id. Upserts replace the stored
// value for an existing id; there is no versioning and last write wins.

// VectorHit is one ranked result of a similarity search.
type VectorHit struct {
	ID    string
	Score float32
}

// RawStore holds the text side of the dual index.
type RawStore interface {
	// EnsureIndex creates the index if absent. Idempotent.
	EnsureIndex(ctx context.Context, index string) error
	// PutRaw upserts the record under rec.UnitId.
	PutRaw(ctx context.Context, index string, rec *knowledge.RawUnit) error
	// GetRaw returns the record for id, or xerr.ErrNotFound when absent.
	GetRaw(ctx context.Context, index, id string) (*knowledge.RawUnit, error)
}

// VectorStore holds the embedding side of the dual index.
type VectorStore interface {
	// EnsureIndex creates the index with the given dimension if absent.
	// Idempotent.
	EnsureIndex(ctx context.Context, index string, dim int) error
	// PutVector upserts the embedding under id.
	PutVector(ctx context.Context, index, id string, vec []float32) error
	// Search returns up to topK ids ranked by cosine similarity descending.
	// The order is stable: repeated identical calls against an unchanged
	// index return the same sequence (ties break by id ascending).
	Search(ctx context.Context, index string, vec []float32, topK int) ([]VectorHit, error)
}
