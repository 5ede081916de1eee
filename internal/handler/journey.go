package handler

import (
	"log/slog"
	"net/http"

	"guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/httputil"
)

// JourneyHandler handles journey HTTP requests. Like GuideHandler, a nil
// service means storage is not configured and every route answers 503.
type JourneyHandler struct {
	journeyService guidesSvc.JourneyService
	logger         *slog.Logger
}

// NewJourneyHandler creates a new journey handler
func NewJourneyHandler(journeyService guidesSvc.JourneyService, logger *slog.Logger) *JourneyHandler {
	return &JourneyHandler{
		journeyService: journeyService,
		logger:         logger,
	}
}

// updateJourneyRequest is the PATCH wire format. summary distinguishes null
// (clear) from absent (keep).
type updateJourneyRequest struct {
	Title   *string                 `json:"title"`
	Slug    *string                 `json:"slug"`
	Summary httputil.OptionalString `json:"summary"`
}

type reorderMilestonesRequest struct {
	GuideIDs []string `json:"guide_ids"`
}

func (h *JourneyHandler) available(w http.ResponseWriter) bool {
	if h.journeyService == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "journey storage is not configured")
		return false
	}
	return true
}

// CreateJourney creates a new journey
// POST /api/journeys
func (h *JourneyHandler) CreateJourney(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req guidesSvc.CreateJourneyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	journey, err := h.journeyService.CreateJourney(r.Context(), &req)
	if err != nil {
		handleCreateConflict(w, err, func(resourceID string) (*guides.JourneyDetail, error) {
			return h.journeyService.GetJourney(r.Context(), resourceID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, journey)
}

// ListJourneys lists all journeys
// GET /api/journeys
func (h *JourneyHandler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	journeys, err := h.journeyService.ListJourneys(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, journeys)
}

// GetJourney retrieves a journey with its guides ordered by milestone
// GET /api/journeys/{id}
func (h *JourneyHandler) GetJourney(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	journey, err := h.journeyService.GetJourney(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, journey)
}

// UpdateJourney applies a partial update
// PATCH /api/journeys/{id}
func (h *JourneyHandler) UpdateJourney(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var body updateJourneyRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &guidesSvc.UpdateJourneyRequest{
		Title:   body.Title,
		Slug:    body.Slug,
		Summary: guides.OptionalRef{Present: body.Summary.Present, Value: body.Summary.Value},
	}

	journey, err := h.journeyService.UpdateJourney(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, journey)
}

// DeleteJourney soft-deletes a journey and detaches its guides
// DELETE /api/journeys/{id}
func (h *JourneyHandler) DeleteJourney(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if err := h.journeyService.DeleteJourney(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderMilestones rewrites the journey's milestone ordering
// PUT /api/journeys/{id}/milestones
func (h *JourneyHandler) ReorderMilestones(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var body reorderMilestonesRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	journey, err := h.journeyService.ReorderMilestones(r.Context(), r.PathValue("id"), body.GuideIDs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, journey)
}
