package content

// Metadata is page-level information extracted from fetched HTML.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Milestone int    `json:"milestone,omitempty"` // 0 = not part of a learning journey
}

// FetchResult is the outcome of retrieving guide HTML from a source URL.
// FinalURL is the variant that answered, which may differ from the requested
// URL.
type FetchResult struct {
	URL       string   `json:"url"`
	FinalURL  string   `json:"finalUrl"`
	HTML      string   `json:"-"`
	Metadata  Metadata `json:"metadata"`
	FromCache bool     `json:"fromCache"`
}
