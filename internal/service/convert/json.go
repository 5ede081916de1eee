package convert

import (
	"context"
	"encoding/json"
	"fmt"

	"guidepost/internal/domain/models/guides"
)

// jsonExporter renders the guide's block tree as an indented JSON document.
type jsonExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() Exporter {
	return &jsonExporter{}
}

func (e *jsonExporter) Format() string {
	return "json"
}

func (e *jsonExporter) Export(ctx context.Context, guide *guides.Guide) (*Result, error) {
	body, err := json.MarshalIndent(guide, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode guide: %w", err)
	}

	return &Result{
		Body:        append(body, '\n'),
		ContentType: "application/json",
		Filename:    guide.Slug + ".json",
	}, nil
}
