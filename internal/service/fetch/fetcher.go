package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"guidepost/internal/config"
	"guidepost/internal/domain"
	"guidepost/internal/domain/models/content"
	"guidepost/internal/trust"
)

const userAgent = "guidepost-fetcher/1.0"

// Fetcher retrieves guide HTML from trusted documentation sources. URLs that
// could never pass the trust gate for any content kind are refused before a
// single request goes out, so the fetcher cannot be used as an open proxy.
type Fetcher struct {
	validator *trust.Validator
	client    *http.Client
	cache     Cache
	logger    *slog.Logger
	maxBytes  int64
}

// NewFetcher builds a fetcher around the trust validator and cache. Pass the
// result of NewMemoryCache when Redis is not configured.
func NewFetcher(validator *trust.Validator, cache Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		validator: validator,
		client: &http.Client{
			Timeout: config.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		cache:    cache,
		logger:   logger,
		maxBytes: config.MaxFetchResponseBytes,
	}
}

// statusError records a non-200 answer from a candidate URL so the caller
// can distinguish "page does not exist" from transport failures.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// Fetch retrieves the page at rawURL, trying fallback variants (trailing
// slash, index.html under repository directories, the unstyled plain view of
// documentation pages) until one answers with HTML. Results are cached under
// the requested URL for the configured TTL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*content.FetchResult, error) {
	u := trust.ParseURL(rawURL)
	if u == nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid source url %q", rawURL)}
	}
	if f.validator.IsBundledRef(rawURL) {
		return nil, &domain.ValidationError{Message: "bundled content is served from the registry, not fetched"}
	}
	if !f.fetchable(rawURL) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("refusing to fetch untrusted url %q", rawURL)}
	}

	if cached, ok := f.cache.Get(ctx, rawURL); ok {
		f.logger.Debug("fetch cache hit", "url", rawURL)
		return cached, nil
	}

	// One deadline covers all variant attempts.
	ctx, cancel := context.WithTimeout(ctx, config.FetchTimeout)
	defer cancel()

	var lastErr error
	sawNotFound := false
	for _, candidate := range f.variants(u) {
		result, err := f.fetchOne(ctx, candidate)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code == http.StatusNotFound {
				sawNotFound = true
			}
			f.logger.Debug("fetch variant failed", "url", candidate, "error", err)
			lastErr = err
			continue
		}

		result.URL = rawURL
		result.Metadata = extractMetadata(result.HTML, result.FinalURL)
		f.cache.Set(ctx, rawURL, result)
		f.logger.Info("fetched source page",
			"url", rawURL,
			"finalUrl", result.FinalURL,
			"bytes", len(result.HTML))
		return result, nil
	}

	if sawNotFound {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("no page found at %s or its variants", rawURL)}
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

// fetchable reports whether rawURL belongs to a source worth retrieving.
// Video URLs classify as trusted but are embed-only, so they are excluded
// here along with everything untrusted.
func (f *Fetcher) fetchable(rawURL string) bool {
	switch f.validator.Classify(rawURL) {
	case trust.DecisionTrustedDocs, trust.DecisionTrustedTutorialRepo, trust.DecisionTrustedDevLocalhost:
		return true
	default:
		return false
	}
}

// variants builds the candidate URLs to try, most specific first. The
// requested URL always comes first; the rest cover common layouts where the
// canonical page lives one step away.
func (f *Fetcher) variants(u *url.URL) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(u.String())

	if !strings.HasSuffix(u.Path, "/") && path.Ext(u.Path) == "" {
		v := *u
		v.Path += "/"
		add(v.String())
	}

	if f.validator.IsGitHubRawHost(u.String()) && path.Ext(u.Path) == "" {
		v := *u
		if strings.HasSuffix(v.Path, "/") {
			v.Path += "index.html"
		} else {
			v.Path += "/index.html"
		}
		add(v.String())
	}

	if f.validator.IsDocsURL(u.String()) && u.Query().Get("plain") == "" {
		v := *u
		q := v.Query()
		q.Set("plain", "1")
		v.RawQuery = q.Encode()
		add(v.String())
	}

	return out
}

// fetchOne issues a single GET and returns the body when the answer is an
// HTML page within the size limit.
func (f *Fetcher) fetchOne(ctx context.Context, candidate string) (*content.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: candidate}
	}
	if !htmlContentType(resp.Header.Get("Content-Type"), resp.Request.URL, f.validator) {
		return nil, fmt.Errorf("not an HTML page: content type %q", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", f.maxBytes)
	}

	return &content.FetchResult{
		FinalURL: resp.Request.URL.String(),
		HTML:     string(body),
	}, nil
}

// htmlContentType accepts HTML content types, plus text/plain from the
// raw-content host, which serves .html files without an HTML media type.
func htmlContentType(contentType string, finalURL *url.URL, validator *trust.Validator) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return true
	}
	if strings.Contains(ct, "text/plain") && validator.IsGitHubRawHost(finalURL.String()) {
		return true
	}
	return false
}
