package guides

import (
	"fmt"
)

// Default search configuration values
const (
	DefaultSearchLimit    = 20
	DefaultSearchLanguage = "english"
	MaxSearchLimit        = 100
)

// SearchOptions configures guide full-text search. Title matches rank above
// body matches.
type SearchOptions struct {
	// Query is the search string (required)
	Query string

	// JourneyID optionally limits results to one journey's guides
	JourneyID string

	// Pagination
	Limit  int
	Offset int

	// Language is the text search configuration used for stemming and stop
	// words (e.g. "english", "spanish")
	Language string
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Language == "" {
		opts.Language = DefaultSearchLanguage
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	if opts.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	return nil
}

// SearchResult is a single matched guide with its relevance score. Excerpt
// is a highlighted fragment of the matching text; Guide omits the block tree.
type SearchResult struct {
	Guide   Guide   `json:"guide"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// SearchResults is the full search response with pagination metadata.
type SearchResults struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count"`
	HasMore    bool           `json:"has_more"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
}

// NewSearchResults creates a SearchResults with the HasMore flag computed.
func NewSearchResults(results []SearchResult, totalCount int, opts *SearchOptions) *SearchResults {
	return &SearchResults{
		Results:    results,
		TotalCount: totalCount,
		HasMore:    (opts.Offset + len(results)) < totalCount,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	}
}
