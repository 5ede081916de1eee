package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"guidepost/internal/config"
	"guidepost/internal/domain"
	"guidepost/internal/domain/models/content"
	"guidepost/internal/domain/services"
	"guidepost/internal/httputil"
)

// maxContentBodyBytes caps the JSON request body around an HTML payload.
// JSON escaping can roughly double the markup on the wire.
const maxContentBodyBytes = 2 * config.MaxContentBytes

// ContentHandler exposes the sanitize/parse/fetch pipeline over HTTP. These
// endpoints are stateless and public; nothing here touches storage.
type ContentHandler struct {
	sanitizer services.ContentSanitizer
	parser    services.ContentParser
	fetcher   services.ContentFetcher
	devMode   bool
	logger    *slog.Logger
}

// NewContentHandler creates a new content handler. devMode controls whether
// bypassTrustCheck requests are honored.
func NewContentHandler(
	sanitizer services.ContentSanitizer,
	parser services.ContentParser,
	fetcher services.ContentFetcher,
	devMode bool,
	logger *slog.Logger,
) *ContentHandler {
	return &ContentHandler{
		sanitizer: sanitizer,
		parser:    parser,
		fetcher:   fetcher,
		devMode:   devMode,
		logger:    logger,
	}
}

type parseContentRequest struct {
	HTML             string `json:"html"`
	BaseURL          string `json:"baseUrl,omitempty"`
	BypassTrustCheck bool   `json:"bypassTrustCheck,omitempty"`
}

type sanitizeContentRequest struct {
	HTML string `json:"html"`
}

type sanitizeContentResponse struct {
	HTML string `json:"html"`
}

type fetchContentRequest struct {
	URL string `json:"url"`
}

type fetchContentResponse struct {
	URL       string                      `json:"url"`
	FinalURL  string                      `json:"finalUrl"`
	FromCache bool                        `json:"fromCache"`
	Metadata  content.Metadata            `json:"metadata"`
	Result    *content.ContentParseResult `json:"result"`
}

// ParseContent sanitizes and parses HTML into the element tree envelope
// POST /api/content/parse
func (h *ContentHandler) ParseContent(w http.ResponseWriter, r *http.Request) {
	var req parseContentRequest
	if err := httputil.ParseJSONLimit(w, r, &req, maxContentBodyBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.HTML == "" {
		httputil.RespondError(w, http.StatusBadRequest, "html is required")
		return
	}
	if len(req.HTML) > config.MaxContentBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("html exceeds %d bytes", config.MaxContentBytes))
		return
	}

	bypass := req.BypassTrustCheck && h.devMode
	if req.BypassTrustCheck && !bypass {
		h.logger.Warn("trust bypass requested outside dev mode", "base_url", req.BaseURL)
	}

	sanitized := h.sanitizer.Sanitize(req.HTML)
	result := h.parser.Parse(sanitized, content.ParseOptions{
		BaseURL:          req.BaseURL,
		BypassTrustCheck: bypass,
	})

	httputil.RespondJSON(w, http.StatusOK, result)
}

// SanitizeContent scrubs HTML without parsing it
// POST /api/content/sanitize
func (h *ContentHandler) SanitizeContent(w http.ResponseWriter, r *http.Request) {
	var req sanitizeContentRequest
	if err := httputil.ParseJSONLimit(w, r, &req, maxContentBodyBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.HTML == "" {
		httputil.RespondError(w, http.StatusBadRequest, "html is required")
		return
	}
	if len(req.HTML) > config.MaxContentBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("html exceeds %d bytes", config.MaxContentBytes))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sanitizeContentResponse{
		HTML: h.sanitizer.Sanitize(req.HTML),
	})
}

// FetchContent retrieves a page from a trusted source and runs it through the
// pipeline. The parse uses the final URL as trust base, so redirects cannot
// upgrade untrusted content.
// POST /api/content/fetch
func (h *ContentHandler) FetchContent(w http.ResponseWriter, r *http.Request) {
	var req fetchContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.URL == "" {
		httputil.RespondError(w, http.StatusBadRequest, "url is required")
		return
	}

	fetched, err := h.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
			handleError(w, err)
			return
		}
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	sanitized := h.sanitizer.Sanitize(fetched.HTML)
	result := h.parser.Parse(sanitized, content.ParseOptions{BaseURL: fetched.FinalURL})

	httputil.RespondJSON(w, http.StatusOK, fetchContentResponse{
		URL:       fetched.URL,
		FinalURL:  fetched.FinalURL,
		FromCache: fetched.FromCache,
		Metadata:  fetched.Metadata,
		Result:    result,
	})
}
