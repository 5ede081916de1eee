package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guidepost/internal/domain"
	"guidepost/internal/domain/models/content"
	"guidepost/internal/trust"
)

func testFetcher(t *testing.T, devMode bool) *Fetcher {
	t.Helper()
	policy, err := trust.LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	validator := trust.NewValidator(policy, devMode)
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return NewFetcher(validator, NewMemoryCache(time.Minute), logger)
}

func TestFetchRefusesUntrustedURL(t *testing.T) {
	f := testFetcher(t, false)

	tests := []struct {
		name string
		url  string
	}{
		{"arbitrary host", "https://evil.com/docs/grafana/"},
		{"path smuggling", "https://evil.com/grafana.com/docs/grafana/"},
		{"localhost outside dev mode", "http://localhost:3000/docs/"},
		{"bundled ref", "bundled:welcome-tour"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.url)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Fetch(%q) error = %v, want ErrValidation", tt.url, err)
			}
		})
	}
}

func TestFetchReturnsPage(t *testing.T) {
	page := `<html><head>
		<title>Alerting basics | Grafana docs</title>
		<meta property="og:title" content="Alerting basics">
	</head><body data-journey-milestone="3">
		<article><p>Alerting lets you know when things break. This paragraph
		exists so the readability extractor has enough text to work with,
		because very short pages are classified as non-articles.</p></article>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	f := testFetcher(t, true)
	result, err := f.Fetch(context.Background(), server.URL+"/docs/alerting/")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if result.URL != server.URL+"/docs/alerting/" {
		t.Errorf("URL = %q, want requested url", result.URL)
	}
	if !strings.Contains(result.HTML, "Alerting lets you know") {
		t.Errorf("HTML missing page body")
	}
	if result.Metadata.Title != "Alerting basics" {
		t.Errorf("Metadata.Title = %q, want %q (og:title preferred)", result.Metadata.Title, "Alerting basics")
	}
	if result.Metadata.Milestone != 3 {
		t.Errorf("Metadata.Milestone = %d, want 3", result.Metadata.Milestone)
	}
	if result.FromCache {
		t.Errorf("FromCache = true on first fetch")
	}
}

func TestFetchTriesTrailingSlashVariant(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><head><title>Found</title></head><body><p>ok</p></body></html>")
	}))
	defer server.Close()

	f := testFetcher(t, true)
	result, err := f.Fetch(context.Background(), server.URL+"/docs/guide")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.HasSuffix(result.FinalURL, "/docs/guide/") {
		t.Errorf("FinalURL = %q, want trailing slash variant", result.FinalURL)
	}
	if result.URL != server.URL+"/docs/guide" {
		t.Errorf("URL = %q, want the originally requested url", result.URL)
	}
	if len(requested) != 2 {
		t.Errorf("server saw %d requests %v, want 2 (original then variant)", len(requested), requested)
	}
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	f := testFetcher(t, true)
	_, err := f.Fetch(context.Background(), server.URL+"/docs/missing/")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"not":"html"}`)
	}))
	defer server.Close()

	f := testFetcher(t, true)
	_, err := f.Fetch(context.Background(), server.URL+"/api/data")
	if err == nil {
		t.Fatalf("Fetch() error = nil, want content type rejection")
	}
	if !strings.Contains(err.Error(), "not an HTML page") {
		t.Errorf("Fetch() error = %v, want content type rejection", err)
	}
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	big := strings.Repeat("a", 6<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, big)
	}))
	defer server.Close()

	f := testFetcher(t, true)
	_, err := f.Fetch(context.Background(), server.URL+"/docs/huge/")
	if err == nil {
		t.Fatalf("Fetch() error = nil, want size limit error")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Fetch() error = %v, want size limit error", err)
	}
}

func TestFetchServesSecondCallFromCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><head><title>Cached</title></head><body><p>body</p></body></html>")
	}))
	defer server.Close()

	f := testFetcher(t, true)
	url := server.URL + "/docs/cached/"

	first, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	second, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}

	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
	if first.FromCache {
		t.Errorf("first.FromCache = true, want false")
	}
	if !second.FromCache {
		t.Errorf("second.FromCache = false, want true")
	}
	if second.HTML != first.HTML {
		t.Errorf("cached HTML differs from fetched HTML")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	result := &content.FetchResult{URL: "http://example/", FinalURL: "http://example/", HTML: "<p>x</p>"}
	cache.Set(ctx, "http://example/", result)
	if _, ok := cache.Get(ctx, "http://example/"); !ok {
		t.Fatalf("Get() miss immediately after Set()")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get(ctx, "http://example/"); ok {
		t.Errorf("Get() hit after TTL expiry")
	}
}

func TestVariantsForDocsURL(t *testing.T) {
	f := testFetcher(t, false)
	u := trust.ParseURL("https://grafana.com/docs/grafana/latest/alerting")

	got := f.variants(u)
	want := []string{
		"https://grafana.com/docs/grafana/latest/alerting",
		"https://grafana.com/docs/grafana/latest/alerting/",
		"https://grafana.com/docs/grafana/latest/alerting?plain=1",
	}
	if len(got) != len(want) {
		t.Fatalf("variants() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variants()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractMetadataFallbacks(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		url           string
		wantTitle     string
		wantMilestone int
	}{
		{
			name:      "title tag only",
			html:      "<html><head><title>Plain Title</title></head><body></body></html>",
			url:       "https://grafana.com/docs/grafana/",
			wantTitle: "Plain Title",
		},
		{
			name:          "milestone from url path",
			html:          "<html><head><title>T</title></head><body></body></html>",
			url:           "https://grafana.com/docs/learning-journeys/alerting/milestone-2/",
			wantTitle:     "T",
			wantMilestone: 2,
		},
		{
			name:      "no metadata at all",
			html:      "<html><body><p>bare</p></body></html>",
			url:       "https://grafana.com/docs/grafana/",
			wantTitle: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := extractMetadata(tt.html, tt.url)
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", meta.Title, tt.wantTitle)
			}
			if meta.Milestone != tt.wantMilestone {
				t.Errorf("Milestone = %d, want %d", meta.Milestone, tt.wantMilestone)
			}
		})
	}
}
