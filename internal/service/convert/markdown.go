package convert

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"guidepost/internal/domain/models/guides"
)

// markdownExporter renders a guide's sanitized source markup as markdown.
// Best effort: blocks without source markup (imported markdown, hand-built
// trees) fall back to their plain text.
type markdownExporter struct {
	converter *md.Converter
}

// NewMarkdownExporter creates a new markdown exporter.
func NewMarkdownExporter() Exporter {
	return &markdownExporter{
		converter: md.NewConverter("", true, nil),
	}
}

func (e *markdownExporter) Format() string {
	return "markdown"
}

func (e *markdownExporter) Export(ctx context.Context, guide *guides.Guide) (*Result, error) {
	var body string

	if source := guides.SourceHTML(guide.Blocks); source != "" {
		converted, err := e.converter.ConvertString(source)
		if err != nil {
			return nil, fmt.Errorf("convert guide to markdown: %w", err)
		}
		body = converted
	} else {
		body = guides.PlainText(guide.Blocks)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# %s\n\n", guide.Title)
	out.WriteString(strings.TrimSpace(body))
	out.WriteString("\n")

	markdown := out.String()
	return &Result{
		Body:        []byte(markdown),
		ContentType: "text/markdown; charset=utf-8",
		Filename:    guide.Slug + ".md",
		Meta: map[string]string{
			"word_count": strconv.Itoa(CountMarkdownWords(markdown)),
		},
	}, nil
}
