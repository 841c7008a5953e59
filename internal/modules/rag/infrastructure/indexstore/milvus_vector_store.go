package indexstore

import (
	"context"
	"fmt"
	"sort"

	"StudyLink/internal/modules/rag/domain/repository"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusVectorStore implements the vector half of the index store on a
// Milvus collection per index: varchar primary id + float vector, COSINE
// AUTOINDEX.
type MilvusVectorStore struct {
	cli mclient.Client
}

var _ repository.VectorStore = (*MilvusVectorStore)(nil)

func NewMilvusVectorStore(cli mclient.Client) (*MilvusVectorStore, error) {
	if cli == nil {
		return nil, fmt.Errorf("milvus client is nil")
	}
	return &MilvusVectorStore{cli: cli}, nil
}

func (s *MilvusVectorStore) EnsureIndex(ctx context.Context, index string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dim: %d", dim)
	}
	exists, err := s.cli.HasCollection(ctx, index)
	if err != nil {
		return err
	}
	if !exists {
		schema := &entity.Schema{
			CollectionName: index,
			Description:    "StudyLink unit embeddings",
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       "vector",
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{entity.TypeParamDim: fmt.Sprintf("%d", dim)},
				},
			},
		}
		if err := s.cli.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return err
		}
		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return err
		}
		if err := s.cli.CreateIndex(ctx, index, "vector", idx, false); err != nil {
			return err
		}
	}
	return s.cli.LoadCollection(ctx, index, false)
}

func (s *MilvusVectorStore) PutVector(ctx context.Context, index, id string, vec []float32) error {
	if id == "" {
		return fmt.Errorf("vector missing unit id")
	}
	_, err := s.cli.Upsert(
		ctx,
		index,
		"", // partition
		entity.NewColumnVarChar("id", []string{id}),
		entity.NewColumnFloatVector("vector", len(vec), [][]float32{vec}),
	)
	return err
}

func (s *MilvusVectorStore) Search(ctx context.Context, index string, vec []float32, topK int) ([]repository.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	sp, _ := entity.NewIndexAUTOINDEXSearchParam(1)

	res, err := s.cli.Search(
		ctx,
		index,
		nil,
		"",
		[]string{"id"},
		[]entity.Vector{entity.FloatVector(vec)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, err
	}

	hits := make([]repository.VectorHit, 0)
	if len(res) > 0 {
		sr := res[0]
		if sr.Err != nil {
			return nil, sr.Err
		}
		for i := 0; i < sr.ResultCount; i++ {
			id, err := sr.IDs.GetAsString(i)
			if err != nil {
				continue
			}
			hits = append(hits, repository.VectorHit{ID: id, Score: sr.Scores[i]})
		}
	}

	// Milvus does not define the order of equal-score hits; pin it so
	// repeated identical searches return the same sequence.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	return hits, nil
}
