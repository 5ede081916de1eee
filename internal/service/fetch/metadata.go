package fetch

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"guidepost/internal/domain/models/content"
)

// extractMetadata pulls the page title, a short summary, and the learning
// journey milestone index out of fetched HTML. Extraction is best-effort:
// anything that cannot be determined is left at its zero value.
func extractMetadata(html, finalURL string) content.Metadata {
	var meta content.Metadata

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta
	}

	meta.Title = pageTitle(doc)
	meta.Milestone = milestoneIndex(doc, finalURL)
	meta.Summary = pageSummary(html, finalURL)

	return meta
}

// pageTitle prefers the og:title meta tag over the document title, which on
// documentation sites usually carries a "| Site Name" suffix.
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// milestoneIndex reads the milestone position from a data-journey-milestone
// attribute, falling back to a "milestone-N" segment in the URL path.
// Returns 0 when the page is not part of a learning journey.
func milestoneIndex(doc *goquery.Document, finalURL string) int {
	if attr, ok := doc.Find("[data-journey-milestone]").First().Attr("data-journey-milestone"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(attr)); err == nil && n > 0 {
			return n
		}
	}

	u, err := url.Parse(finalURL)
	if err != nil {
		return 0
	}
	for _, segment := range strings.Split(u.Path, "/") {
		rest, found := strings.CutPrefix(segment, "milestone-")
		if !found {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// pageSummary runs the readability extractor and returns its excerpt,
// truncated to a sentence-sized snippet when the page has no explicit
// description.
func pageSummary(html, finalURL string) string {
	parsedURL, err := url.Parse(finalURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return ""
	}

	summary := strings.TrimSpace(article.Excerpt)
	if summary == "" {
		summary = firstWords(article.TextContent, 40)
	}
	return summary
}

// firstWords returns up to n whitespace-separated words from text.
func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
