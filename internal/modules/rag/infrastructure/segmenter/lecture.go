package segmenter

import (
	"regexp"
	"strings"

	"StudyLink/internal/modules/rag/domain/knowledge"
)

var (
	// sectionMarkerRe matches a leading numeric ordinal followed by a
	// period ("1. Intro", "12. Summary"). Such a paragraph opens a new
	// section; its own text is a heading, not content.
	sectionMarkerRe = regexp.MustCompile(`^\d{1,3}\.`)
	// timestampRe matches embedded H:MM and H:MM:SS timestamps.
	timestampRe = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?`)
	// speakerRe matches a speaker-label prefix ("Alice:", "Bob Smith:") at
	// the start of a paragraph.
	speakerRe = regexp.MustCompile(`^[A-Za-z0-9\s]+:`)
)

// lectureSegmenter concatenates the paragraphs between two section markers
// into one unit, stripping timestamps and speaker labels. The final open
// section is flushed even without a trailing marker.
type lectureSegmenter struct{}

func (lectureSegmenter) Segment(doc *Document) ([]knowledge.Unit, []error) {
	var units []knowledge.Unit
	var current []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, " "))
		current = current[:0]
		if text == "" {
			return
		}
		units = append(units, knowledge.Unit{
			Text:       text,
			SourcePath: doc.Path,
			Seq:        len(units),
			Type:       knowledge.SourceLecture,
		})
	}

	for _, para := range doc.Blocks {
		if sectionMarkerRe.MatchString(para) {
			flush()
			continue
		}
		cleaned := timestampRe.ReplaceAllString(para, "")
		cleaned = speakerRe.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		current = append(current, cleaned)
	}
	flush()

	return units, nil
}
