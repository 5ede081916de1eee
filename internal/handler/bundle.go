package handler

import (
	"log/slog"
	"net/http"

	"guidepost/internal/bundle"
	"guidepost/internal/domain/models/content"
	"guidepost/internal/domain/services"
	"guidepost/internal/httputil"
)

// BundleHandler serves the compiled-in guide registry. Bundled guides go
// through the same sanitize/parse pipeline as external content; their
// "bundled:" base URL admits interactive elements.
type BundleHandler struct {
	registry  *bundle.Registry
	sanitizer services.ContentSanitizer
	parser    services.ContentParser
	logger    *slog.Logger
}

// NewBundleHandler creates a new bundle handler
func NewBundleHandler(
	registry *bundle.Registry,
	sanitizer services.ContentSanitizer,
	parser services.ContentParser,
	logger *slog.Logger,
) *BundleHandler {
	return &BundleHandler{
		registry:  registry,
		sanitizer: sanitizer,
		parser:    parser,
		logger:    logger,
	}
}

type bundledGuideResponse struct {
	bundle.Entry
	BaseURL string                      `json:"baseUrl"`
	Result  *content.ContentParseResult `json:"result"`
}

// ListBundled lists the bundled guide catalog
// GET /api/bundled
func (h *BundleHandler) ListBundled(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.List())
}

// GetBundled returns one bundled guide, parsed
// GET /api/bundled/{id}
func (h *BundleHandler) GetBundled(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	guide, err := h.registry.Get(id)
	if err != nil {
		handleError(w, err)
		return
	}

	sanitized := h.sanitizer.Sanitize(guide.HTML)
	result := h.parser.Parse(sanitized, content.ParseOptions{BaseURL: guide.BaseURL})

	httputil.RespondJSON(w, http.StatusOK, bundledGuideResponse{
		Entry:   guide.Entry,
		BaseURL: guide.BaseURL,
		Result:  result,
	})
}
