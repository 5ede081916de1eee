package services

import (
	"context"

	"guidepost/internal/domain/models/content"
)

// ContentSanitizer scrubs untrusted HTML. Sanitize is total: any input maps
// to a cleaned document, never an error.
type ContentSanitizer interface {
	Sanitize(html string) string
}

// ContentParser converts sanitized HTML into the typed element tree. Parse
// reports malformed input through the result envelope, not through Go errors.
type ContentParser interface {
	Parse(html string, opts content.ParseOptions) *content.ContentParseResult
}

// ContentFetcher retrieves guide HTML from a source URL, trying known URL
// variants, and extracts page metadata.
type ContentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*content.FetchResult, error)
}
