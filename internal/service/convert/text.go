package convert

import (
	"context"
	"strconv"
	"strings"

	"guidepost/internal/domain/models/guides"
)

// textExporter renders a guide as tag-stripped plain text.
type textExporter struct{}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter() Exporter {
	return &textExporter{}
}

func (e *textExporter) Format() string {
	return "text"
}

func (e *textExporter) Export(ctx context.Context, guide *guides.Guide) (*Result, error) {
	text := guides.PlainText(guide.Blocks)

	var out strings.Builder
	out.WriteString(guide.Title)
	out.WriteString("\n\n")
	out.WriteString(text)
	out.WriteString("\n")

	return &Result{
		Body:        []byte(out.String()),
		ContentType: "text/plain; charset=utf-8",
		Filename:    guide.Slug + ".txt",
		Meta: map[string]string{
			"word_count": strconv.Itoa(CountWords(text)),
		},
	}, nil
}
