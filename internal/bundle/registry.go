package bundle

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"guidepost/internal/domain"
)

//go:embed index.yaml content/*.html
var bundleFiles embed.FS

// BaseURLPrefix marks bundled content for the trust gate. A bundled guide's
// base URL is this prefix plus its registry ID.
const BaseURLPrefix = "bundled:"

// Entry describes one guide shipped inside the binary.
type Entry struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Summary string   `yaml:"summary" json:"summary"`
	Tags    []string `yaml:"tags" json:"tags,omitempty"`
	File    string   `yaml:"file" json:"-"`
}

// Guide is a bundled guide with its HTML and the synthetic base URL under
// which the trust gate admits it.
type Guide struct {
	Entry
	HTML    string
	BaseURL string
}

// Registry holds the bundled guides, loaded once at construction. It is
// immutable afterwards and safe for concurrent use.
type Registry struct {
	entries []Entry
	guides  map[string]*Guide
}

// NewRegistry parses the embedded index and loads every listed content file.
// A missing or duplicate entry is a build defect, so loading fails loudly.
func NewRegistry() (*Registry, error) {
	data, err := bundleFiles.ReadFile("index.yaml")
	if err != nil {
		return nil, fmt.Errorf("read bundled index: %w", err)
	}

	var index struct {
		Guides []Entry `yaml:"guides"`
	}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("unmarshal bundled index: %w", err)
	}

	r := &Registry{
		entries: index.Guides,
		guides:  make(map[string]*Guide, len(index.Guides)),
	}
	for _, entry := range index.Guides {
		if entry.ID == "" || entry.File == "" {
			return nil, fmt.Errorf("bundled index entry %q missing id or file", entry.Title)
		}
		if _, exists := r.guides[entry.ID]; exists {
			return nil, fmt.Errorf("bundled index lists %q twice", entry.ID)
		}
		html, err := bundleFiles.ReadFile("content/" + entry.File)
		if err != nil {
			return nil, fmt.Errorf("read bundled guide %q: %w", entry.ID, err)
		}
		r.guides[entry.ID] = &Guide{
			Entry:   entry,
			HTML:    string(html),
			BaseURL: BaseURLPrefix + entry.ID,
		}
	}
	return r, nil
}

// List returns the bundled guide entries in index order.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the bundled guide with the given ID.
func (r *Registry) Get(id string) (*Guide, error) {
	guide, ok := r.guides[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("bundled guide %q not found", id)}
	}
	return guide, nil
}
