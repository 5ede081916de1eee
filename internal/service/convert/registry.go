package convert

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"guidepost/internal/domain"
	"guidepost/internal/domain/models/guides"
)

// Result is one exported rendition of a guide.
type Result struct {
	Body        []byte
	ContentType string
	Filename    string            // suggested download name
	Meta        map[string]string // format-specific extras (word_count, ...)
}

// Exporter renders a guide into one output format.
type Exporter interface {
	// Export renders the guide
	Export(ctx context.Context, guide *guides.Guide) (*Result, error)

	// Format returns the registry key (e.g. "markdown")
	Format() string
}

// Registry routes export requests by format name. Follows the same
// factory/registry pattern as the fetch cache backends.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry creates a registry with the standard exporters pre-registered.
func NewRegistry() *Registry {
	registry := &Registry{
		exporters: make(map[string]Exporter),
	}

	registry.Register(NewMarkdownExporter())
	registry.Register(NewTextExporter())
	registry.Register(NewJSONExporter())

	return registry
}

// Register adds an exporter under its format name, lowercased.
func (r *Registry) Register(exporter Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[strings.ToLower(exporter.Format())] = exporter
}

// Get retrieves an exporter by format name, case-insensitive. Returns nil if
// none is registered.
func (r *Registry) Get(format string) Exporter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exporters[strings.ToLower(format)]
}

// Export renders the guide in the named format.
func (r *Registry) Export(ctx context.Context, format string, guide *guides.Guide) (*Result, error) {
	exporter := r.Get(format)
	if exporter == nil {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unsupported export format %q (supported: %s)", format, strings.Join(r.Formats(), ", ")),
		}
	}

	return exporter.Export(ctx, guide)
}

// Formats returns all registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.exporters))
	for format := range r.exporters {
		formats = append(formats, format)
	}
	return formats
}
