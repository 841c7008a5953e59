package knowledge

import (
	"time"
)

// SourceType selects the segmentation policy for a document. The set is
// closed: dispatch happens on this tag, never on file extensions.
type SourceType string

const (
	SourcePage      SourceType = "page"      // one unit per page, verbatim
	SourceParagraph SourceType = "paragraph" // one unit per non-empty paragraph
	SourceScript    SourceType = "script"    // whole file as a single unit
	SourceLecture   SourceType = "lecture"   // ordinal-marker sections, cleaned
	SourceTemplate  SourceType = "template"  // structured records rendered via template
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourcePage, SourceParagraph, SourceScript, SourceLecture, SourceTemplate:
		return true
	}
	return false
}

// Unit is the smallest independently retrievable text segment. The ID is
// assigned at write time and is shared by the raw and vector indices.
type Unit struct {
	ID         string
	Text       string
	SourcePath string
	Seq        int
	Type       SourceType
}

// RawUnit is the raw-index record for one Unit. The (IndexName, UnitID)
// pair is the shared identifier scheme: a vector entry with the same id in
// the corresponding vector index is expected to exist.
type RawUnit struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	IndexName    string    `gorm:"column:index_name;type:varchar(64);not null;uniqueIndex:uniq_raw_unit"`
	UnitId       string    `gorm:"column:unit_id;type:varchar(128);not null;uniqueIndex:uniq_raw_unit"`
	Content      string    `gorm:"column:content;type:mediumtext"`
	SourcePath   string    `gorm:"column:source_path;type:varchar(512)"`
	Seq          int       `gorm:"column:seq;type:int;not null"`
	SourceType   string    `gorm:"column:source_type;type:varchar(20);not null"`
	ModelVersion string    `gorm:"column:model_version;type:varchar(64);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (RawUnit) TableName() string { return "rag_raw_unit" }

// FeedbackRecord is one rated (query, context, answer) tuple. Records are
// append-only: written once by the feedback logger, read as a snapshot by
// the refinement loop, never mutated.
type FeedbackRecord struct {
	Query         string  `json:"query"`
	Context       string  `json:"context"`
	Answer        string  `json:"answer"`
	AnswerRating  float64 `json:"answer_rating"`
	ContextRating float64 `json:"context_rating"`
}
