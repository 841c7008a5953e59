package segmenter

import (
	"fmt"
	"regexp"
	"strings"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/xerr"
)

// placeholderRe matches {field} placeholders in a template string.
var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// templateSegmenter renders each structured record into free text by
// substituting the template's named placeholders. Only fields the template
// references are required; a record missing one is skipped with a
// MissingTemplateField error and the rest of the batch continues.
type templateSegmenter struct{}

func (templateSegmenter) Segment(doc *Document) ([]knowledge.Unit, []error) {
	fields := placeholderNames(doc.Template)

	var units []knowledge.Unit
	var skipped []error
	for i, rec := range doc.Records {
		text, missing := render(doc.Template, fields, rec)
		if missing != "" {
			skipped = append(skipped, xerr.New(xerr.CodeMissingTemplateField,
				fmt.Sprintf("record %d: missing template field %q", i, missing)))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, knowledge.Unit{
			Text:       text,
			SourcePath: doc.Path,
			Seq:        i,
			Type:       knowledge.SourceTemplate,
		})
	}
	return units, skipped
}

func placeholderNames(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// render substitutes every referenced field. It returns the name of the
// first missing field, if any; extra record fields are ignored.
func render(template string, fields []string, rec map[string]any) (string, string) {
	out := template
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			return "", f
		}
		out = strings.ReplaceAll(out, "{"+f+"}", fmt.Sprintf("%v", v))
	}
	return out, ""
}
