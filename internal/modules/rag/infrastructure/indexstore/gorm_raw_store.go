package indexstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/pkg/xerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRawStore implements the raw half of the index store on MySQL. All
// indices share one table; the (index_name, unit_id) unique key carries
// the shared identifier scheme.
type GormRawStore struct {
	db *gorm.DB
}

var _ repository.RawStore = (*GormRawStore)(nil)

func NewGormRawStore(db *gorm.DB) (*GormRawStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is nil")
	}
	return &GormRawStore{db: db}, nil
}

// EnsureIndex is satisfied by the shared table migration run at startup;
// an index exists as soon as its first record lands.
func (s *GormRawStore) EnsureIndex(ctx context.Context, index string) error {
	if index == "" {
		return xerr.New(xerr.BadRequest, "empty index name")
	}
	return nil
}

func (s *GormRawStore) PutRaw(ctx context.Context, index string, rec *knowledge.RawUnit) error {
	if rec == nil || rec.UnitId == "" {
		return xerr.New(xerr.BadRequest, "raw record missing unit id")
	}
	now := time.Now()
	row := *rec
	row.Id = 0
	row.IndexName = index
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "index_name"}, {Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "source_path", "seq", "source_type", "model_version", "updated_at",
		}),
	}).Create(&row).Error
}

func (s *GormRawStore) GetRaw(ctx context.Context, index, id string) (*knowledge.RawUnit, error) {
	var row knowledge.RawUnit
	err := s.db.WithContext(ctx).
		Where("index_name = ? AND unit_id = ?", index, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
