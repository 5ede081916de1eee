package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"guidepost/internal/config"
	"guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/httputil"
	"guidepost/internal/service/convert"
)

// GuideHandler handles guide HTTP requests. The service is nil when the
// server runs without a database; every route then answers 503.
type GuideHandler struct {
	guideService guidesSvc.GuideService
	exporters    *convert.Registry
	logger       *slog.Logger
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(guideService guidesSvc.GuideService, exporters *convert.Registry, logger *slog.Logger) *GuideHandler {
	return &GuideHandler{
		guideService: guideService,
		exporters:    exporters,
		logger:       logger,
	}
}

// updateGuideRequest is the PATCH wire format. source_url and journey_id
// distinguish null (clear) from absent (keep).
type updateGuideRequest struct {
	Title     *string                 `json:"title"`
	Slug      *string                 `json:"slug"`
	Milestone *int                    `json:"milestone"`
	SourceURL httputil.OptionalString `json:"source_url"`
	JourneyID httputil.OptionalString `json:"journey_id"`
	Blocks    []guides.Block          `json:"blocks"`
}

// importResponse wraps the import result with an overall success flag
type importResponse struct {
	Success bool                    `json:"success"`
	Summary guidesSvc.ImportSummary `json:"summary"`
	Errors  []guidesSvc.ImportError `json:"errors"`
	Guides  []guidesSvc.ImportGuide `json:"guides"`
}

// available reports whether guide storage is configured, answering 503 when
// it is not
func (h *GuideHandler) available(w http.ResponseWriter) bool {
	if h.guideService == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "guide storage is not configured")
		return false
	}
	return true
}

// CreateGuide creates a new guide, optionally building its blocks from HTML
// POST /api/guides
// Returns 201 if created, 409 with the existing guide if the slug is taken
func (h *GuideHandler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req guidesSvc.CreateGuideRequest
	if err := httputil.ParseJSONLimit(w, r, &req, maxContentBodyBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	guide, err := h.guideService.CreateGuide(r.Context(), &req)
	if err != nil {
		handleCreateConflict(w, err, func(resourceID string) (*guides.Guide, error) {
			return h.guideService.GetGuide(r.Context(), resourceID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, guide)
}

// ListGuides lists guides or, when ?q= is present, performs full-text search
// GET /api/guides?q=&journey=&limit=&offset=
func (h *GuideHandler) ListGuides(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	query := r.URL.Query()
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		h.searchGuides(w, r, q)
		return
	}

	var journeyID *string
	if j := query.Get("journey"); j != "" {
		journeyID = &j
	}

	list, err := h.guideService.ListGuides(r.Context(), journeyID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

func (h *GuideHandler) searchGuides(w http.ResponseWriter, r *http.Request, q string) {
	query := r.URL.Query()

	req := &guidesSvc.SearchGuidesRequest{
		Query:     q,
		JourneyID: query.Get("journey"),
	}

	var err error
	if req.Limit, err = queryInt(query.Get("limit")); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if req.Offset, err = queryInt(query.Get("offset")); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	results, err := h.guideService.SearchGuides(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// GetGuide retrieves a guide by ID
// GET /api/guides/{id}
func (h *GuideHandler) GetGuide(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	guide, err := h.guideService.GetGuide(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, guide)
}

// UpdateGuide applies a partial update
// PATCH /api/guides/{id}
func (h *GuideHandler) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var body updateGuideRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &guidesSvc.UpdateGuideRequest{
		Title:     body.Title,
		Slug:      body.Slug,
		Milestone: body.Milestone,
		SourceURL: guides.OptionalRef{Present: body.SourceURL.Present, Value: body.SourceURL.Value},
		JourneyID: guides.OptionalRef{Present: body.JourneyID.Present, Value: body.JourneyID.Value},
		Blocks:    body.Blocks,
	}

	guide, err := h.guideService.UpdateGuide(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, guide)
}

// DeleteGuide soft-deletes a guide
// DELETE /api/guides/{id}
func (h *GuideHandler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if err := h.guideService.DeleteGuide(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyBlockOp applies a single insert/remove/move to the guide's block tree
// POST /api/guides/{id}/blocks
func (h *GuideHandler) ApplyBlockOp(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var op guidesSvc.BlockOp
	if err := httputil.ParseJSON(w, r, &op); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	guide, err := h.guideService.ApplyBlockOp(r.Context(), r.PathValue("id"), &op)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, guide)
}

// ExportGuide renders a guide in the requested format and serves it as a
// download
// GET /api/guides/{id}/export?format=markdown|text|json
func (h *GuideHandler) ExportGuide(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	guide, err := h.guideService.GetGuide(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	res, err := h.exporters.Export(r.Context(), format, guide)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	for key, value := range res.Meta {
		w.Header().Set("X-Export-"+headerName(key), value)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}

// ImportGuides imports guides from an uploaded zip archive
// POST /api/guides/import
func (h *GuideHandler) ImportGuides(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if err := r.ParseMultipartForm(config.MaxImportArchiveBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "archive file is required")
		return
	}
	defer func() { _ = file.Close() }()

	archive, err := io.ReadAll(io.LimitReader(file, config.MaxImportArchiveBytes+1))
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read %s", header.Filename))
		return
	}

	h.logger.Info("starting guide import",
		"file", header.Filename,
		"size", len(archive),
	)

	result, err := h.guideService.ImportArchive(r.Context(), archive)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, importResponse{
		Success: result.Summary.Failed == 0,
		Summary: result.Summary,
		Errors:  result.Errors,
		Guides:  result.Guides,
	})
}

// queryInt parses an optional integer query parameter, 0 when absent
func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// headerName converts a meta key like "word_count" to "Word-Count"
func headerName(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
