package segmenter

import (
	"fmt"
	"strings"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/xerr"
)

// Document is a parsed source ready for segmentation. Format parsers run
// upstream: Blocks carries pages (page sources), paragraphs (paragraph and
// lecture sources) or the whole file content (script sources) in document
// order. Template sources carry Records plus the Template string instead.
type Document struct {
	Path     string
	Type     knowledge.SourceType
	Blocks   []string
	Template string
	Records  []map[string]any
}

// Segmenter splits a document into retrievable units in document order.
// Units that cannot be produced (a malformed record, an empty section) are
// reported in skipped and do not abort the rest of the document.
type Segmenter interface {
	Segment(doc *Document) (units []knowledge.Unit, skipped []error)
}

// ForType returns the segmenter for an explicit source-type tag.
func ForType(t knowledge.SourceType) (Segmenter, error) {
	switch t {
	case knowledge.SourcePage:
		return pageSegmenter{}, nil
	case knowledge.SourceParagraph:
		return paragraphSegmenter{}, nil
	case knowledge.SourceScript:
		return scriptSegmenter{}, nil
	case knowledge.SourceLecture:
		return lectureSegmenter{}, nil
	case knowledge.SourceTemplate:
		return templateSegmenter{}, nil
	default:
		return nil, xerr.New(xerr.BadRequest, fmt.Sprintf("unknown source type: %s", t))
	}
}

// pageSegmenter emits one unit per page, text verbatim.
type pageSegmenter struct{}

func (pageSegmenter) Segment(doc *Document) ([]knowledge.Unit, []error) {
	units := make([]knowledge.Unit, 0, len(doc.Blocks))
	for i, page := range doc.Blocks {
		units = append(units, knowledge.Unit{
			Text:       page,
			SourcePath: doc.Path,
			Seq:        i,
			Type:       knowledge.SourcePage,
		})
	}
	return units, nil
}

// paragraphSegmenter emits one unit per non-empty paragraph. Seq keeps the
// original paragraph ordinal so dropped empties leave gaps, matching the
// source document numbering.
type paragraphSegmenter struct{}

func (paragraphSegmenter) Segment(doc *Document) ([]knowledge.Unit, []error) {
	units := make([]knowledge.Unit, 0, len(doc.Blocks))
	for i, para := range doc.Blocks {
		if strings.TrimSpace(para) == "" {
			continue
		}
		units = append(units, knowledge.Unit{
			Text:       para,
			SourcePath: doc.Path,
			Seq:        i,
			Type:       knowledge.SourceParagraph,
		})
	}
	return units, nil
}

// scriptSegmenter emits the whole file as a single unit.
type scriptSegmenter struct{}

func (scriptSegmenter) Segment(doc *Document) ([]knowledge.Unit, []error) {
	content := strings.Join(doc.Blocks, "\n")
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return []knowledge.Unit{{
		Text:       content,
		SourcePath: doc.Path,
		Seq:        0,
		Type:       knowledge.SourceScript,
	}}, nil
}
