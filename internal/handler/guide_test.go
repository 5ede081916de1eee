package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guidepost/internal/domain"
	"guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/service/convert"
)

// stubGuideService returns canned values and records the requests it saw.
type stubGuideService struct {
	guide        *guides.Guide
	list         []guides.Guide
	results      *guides.SearchResults
	importResult *guidesSvc.ImportResult

	createErr error
	err       error

	gotGetID     string
	gotJourneyID *string
	listCalled   bool
	gotSearch    *guidesSvc.SearchGuidesRequest
	gotUpdate    *guidesSvc.UpdateGuideRequest
	gotOp        *guidesSvc.BlockOp
	gotArchive   int
}

func (s *stubGuideService) CreateGuide(ctx context.Context, req *guidesSvc.CreateGuideRequest) (*guides.Guide, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.guide, s.err
}

func (s *stubGuideService) GetGuide(ctx context.Context, id string) (*guides.Guide, error) {
	s.gotGetID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.guide, nil
}

func (s *stubGuideService) ListGuides(ctx context.Context, journeyID *string) ([]guides.Guide, error) {
	s.listCalled = true
	s.gotJourneyID = journeyID
	return s.list, s.err
}

func (s *stubGuideService) SearchGuides(ctx context.Context, req *guidesSvc.SearchGuidesRequest) (*guides.SearchResults, error) {
	s.gotSearch = req
	return s.results, s.err
}

func (s *stubGuideService) UpdateGuide(ctx context.Context, id string, req *guidesSvc.UpdateGuideRequest) (*guides.Guide, error) {
	s.gotUpdate = req
	if s.err != nil {
		return nil, s.err
	}
	return s.guide, nil
}

func (s *stubGuideService) DeleteGuide(ctx context.Context, id string) error {
	return s.err
}

func (s *stubGuideService) ApplyBlockOp(ctx context.Context, id string, op *guidesSvc.BlockOp) (*guides.Guide, error) {
	s.gotOp = op
	if s.err != nil {
		return nil, s.err
	}
	return s.guide, nil
}

func (s *stubGuideService) ImportArchive(ctx context.Context, archive []byte) (*guidesSvc.ImportResult, error) {
	s.gotArchive = len(archive)
	if s.err != nil {
		return nil, s.err
	}
	return s.importResult, nil
}

func sampleGuide() *guides.Guide {
	return &guides.Guide{
		ID:    "g-1",
		Title: "Getting Started",
		Slug:  "getting-started",
		Blocks: []guides.Block{
			{ID: "b-1", Type: guides.BlockTypeText, Text: "Welcome to the tour"},
		},
	}
}

func TestGuideRoutesUnavailableWithoutStorage(t *testing.T) {
	h := NewGuideHandler(nil, convert.NewRegistry(), quietLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		path    string
	}{
		{name: "create", handler: h.CreateGuide, method: http.MethodPost, path: "/api/guides"},
		{name: "list", handler: h.ListGuides, method: http.MethodGet, path: "/api/guides"},
		{name: "get", handler: h.GetGuide, method: http.MethodGet, path: "/api/guides/g-1"},
		{name: "update", handler: h.UpdateGuide, method: http.MethodPatch, path: "/api/guides/g-1"},
		{name: "delete", handler: h.DeleteGuide, method: http.MethodDelete, path: "/api/guides/g-1"},
		{name: "blocks", handler: h.ApplyBlockOp, method: http.MethodPost, path: "/api/guides/g-1/blocks"},
		{name: "export", handler: h.ExportGuide, method: http.MethodGet, path: "/api/guides/g-1/export"},
		{name: "import", handler: h.ImportGuides, method: http.MethodPost, path: "/api/guides/import"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			tt.handler(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
		})
	}
}

func TestCreateGuideCreated(t *testing.T) {
	svc := &stubGuideService{guide: sampleGuide()}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	rec := postJSON(t, h.CreateGuide, "/api/guides", map[string]any{
		"title": "Getting Started",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var got guides.Guide
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "g-1" {
		t.Errorf("guide.ID = %q, want %q", got.ID, "g-1")
	}
}

func TestCreateGuideConflictReturnsExisting(t *testing.T) {
	svc := &stubGuideService{
		guide: sampleGuide(),
		createErr: &domain.ConflictError{
			Message:      `guide with slug "getting-started" already exists`,
			ResourceType: "guide",
			ResourceID:   "g-1",
		},
	}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	rec := postJSON(t, h.CreateGuide, "/api/guides", map[string]any{
		"title": "Getting Started",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if svc.gotGetID != "g-1" {
		t.Errorf("fetched conflicting guide %q, want %q", svc.gotGetID, "g-1")
	}

	var got guides.Guide
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Slug != "getting-started" {
		t.Errorf("guide.Slug = %q, want the existing guide", got.Slug)
	}
}

func TestListGuidesQuerySwitch(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantSearch *guidesSvc.SearchGuidesRequest
		wantList   bool
		wantFilter string
	}{
		{
			name:       "plain list",
			path:       "/api/guides",
			wantStatus: http.StatusOK,
			wantList:   true,
		},
		{
			name:       "journey filter",
			path:       "/api/guides?journey=j-1",
			wantStatus: http.StatusOK,
			wantList:   true,
			wantFilter: "j-1",
		},
		{
			name:       "search",
			path:       "/api/guides?q=alerts&journey=j-1&limit=5&offset=10",
			wantStatus: http.StatusOK,
			wantSearch: &guidesSvc.SearchGuidesRequest{Query: "alerts", JourneyID: "j-1", Limit: 5, Offset: 10},
		},
		{
			name:       "bad limit",
			path:       "/api/guides?q=alerts&limit=nope",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubGuideService{
				list:    []guides.Guide{*sampleGuide()},
				results: guides.NewSearchResults([]guides.SearchResult{}, 0, &guides.SearchOptions{Limit: 20}),
			}
			h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			h.ListGuides(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantList != svc.listCalled {
				t.Errorf("listCalled = %v, want %v", svc.listCalled, tt.wantList)
			}
			if tt.wantFilter != "" {
				if svc.gotJourneyID == nil || *svc.gotJourneyID != tt.wantFilter {
					t.Errorf("journey filter = %v, want %q", svc.gotJourneyID, tt.wantFilter)
				}
			}
			if tt.wantSearch != nil {
				if svc.gotSearch == nil {
					t.Fatal("SearchGuides not called")
				}
				if *svc.gotSearch != *tt.wantSearch {
					t.Errorf("search request = %+v, want %+v", *svc.gotSearch, *tt.wantSearch)
				}
			}
		})
	}
}

func TestGetGuideNotFound(t *testing.T) {
	svc := &stubGuideService{err: &domain.NotFoundError{Message: "guide g-404: not found"}}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/guides/g-404", nil)
	req.SetPathValue("id", "g-404")
	rec := httptest.NewRecorder()
	h.GetGuide(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem+json", ct)
	}
}

func TestUpdateGuideMapsTriState(t *testing.T) {
	svc := &stubGuideService{guide: sampleGuide()}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	body := `{"title":"Renamed","source_url":null}`
	req := httptest.NewRequest(http.MethodPatch, "/api/guides/g-1", strings.NewReader(body))
	req.SetPathValue("id", "g-1")
	rec := httptest.NewRecorder()
	h.UpdateGuide(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	got := svc.gotUpdate
	if got == nil {
		t.Fatal("UpdateGuide not called")
	}
	if got.Title == nil || *got.Title != "Renamed" {
		t.Errorf("Title = %v, want Renamed", got.Title)
	}
	if !got.SourceURL.Present || got.SourceURL.Value != nil {
		t.Errorf("SourceURL = %+v, want present null", got.SourceURL)
	}
	if got.JourneyID.Present {
		t.Errorf("JourneyID.Present = true, want absent")
	}
}

func TestApplyBlockOpRoute(t *testing.T) {
	svc := &stubGuideService{guide: sampleGuide()}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	body := `{"op":"move","block_id":"b-1","index":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/guides/g-1/blocks", strings.NewReader(body))
	req.SetPathValue("id", "g-1")
	rec := httptest.NewRecorder()
	h.ApplyBlockOp(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.gotOp == nil || svc.gotOp.Op != guidesSvc.BlockOpMove || svc.gotOp.BlockID != "b-1" || svc.gotOp.Index != 2 {
		t.Errorf("op = %+v, want move b-1 to index 2", svc.gotOp)
	}
}

func TestExportGuide(t *testing.T) {
	svc := &stubGuideService{guide: sampleGuide()}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/guides/g-1/export?format=text", nil)
	req.SetPathValue("id", "g-1")
	rec := httptest.NewRecorder()
	h.ExportGuide(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="getting-started.txt"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if wc := rec.Header().Get("X-Export-Word-Count"); wc == "" {
		t.Error("X-Export-Word-Count header missing")
	}
	if !strings.Contains(rec.Body.String(), "Welcome to the tour") {
		t.Errorf("body = %q, want guide text", rec.Body.String())
	}
}

func TestExportGuideUnsupportedFormat(t *testing.T) {
	svc := &stubGuideService{guide: sampleGuide()}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/guides/g-1/export?format=docx", nil)
	req.SetPathValue("id", "g-1")
	rec := httptest.NewRecorder()
	h.ExportGuide(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "unsupported export format") {
		t.Errorf("body = %q, want unsupported format detail", rec.Body.String())
	}
}

func TestImportGuidesMultipart(t *testing.T) {
	svc := &stubGuideService{
		importResult: &guidesSvc.ImportResult{
			Summary: guidesSvc.ImportSummary{Created: 2, TotalFiles: 2},
			Errors:  []guidesSvc.ImportError{},
			Guides: []guidesSvc.ImportGuide{
				{ID: "g-1", File: "one.md", Title: "One", Slug: "one"},
				{ID: "g-2", File: "two.md", Title: "Two", Slug: "two"},
			},
		},
	}
	h := NewGuideHandler(svc, convert.NewRegistry(), quietLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("archive", "guides.zip")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	archive := []byte("PK\x03\x04 not a real zip, the service is stubbed")
	if _, err := part.Write(archive); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/guides/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ImportGuides(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.gotArchive != len(archive) {
		t.Errorf("service received %d bytes, want %d", svc.gotArchive, len(archive))
	}

	var resp importResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.Summary.Created != 2 {
		t.Errorf("Summary.Created = %d, want 2", resp.Summary.Created)
	}
}

func TestImportGuidesMissingFile(t *testing.T) {
	h := NewGuideHandler(&stubGuideService{}, convert.NewRegistry(), quietLogger())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "no archive here"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/guides/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ImportGuides(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
