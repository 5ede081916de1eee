package guides

import (
	"context"

	"guidepost/internal/domain/models/guides"
)

// JourneyService handles journey business logic
type JourneyService interface {
	// CreateJourney creates a new journey
	CreateJourney(ctx context.Context, req *CreateJourneyRequest) (*guides.Journey, error)

	// GetJourney retrieves a journey with its guides ordered by milestone
	GetJourney(ctx context.Context, id string) (*guides.JourneyDetail, error)

	// ListJourneys lists all journeys
	ListJourneys(ctx context.Context) ([]guides.Journey, error)

	// UpdateJourney applies a partial update
	UpdateJourney(ctx context.Context, id string, req *UpdateJourneyRequest) (*guides.Journey, error)

	// DeleteJourney soft-deletes a journey and detaches its guides
	DeleteJourney(ctx context.Context, id string) error

	// ReorderMilestones rewrites milestone ordering. guideIDs must be a
	// permutation of the journey's current guides.
	ReorderMilestones(ctx context.Context, id string, guideIDs []string) (*guides.JourneyDetail, error)
}

// CreateJourneyRequest represents a journey creation request
type CreateJourneyRequest struct {
	Title   string  `json:"title"`
	Slug    string  `json:"slug,omitempty"` // derived from Title when empty
	Summary *string `json:"summary,omitempty"`
}

// UpdateJourneyRequest represents a partial journey update. Summary is
// tri-state (mapped from the handler DTO).
type UpdateJourneyRequest struct {
	Title   *string `json:"title,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Summary guides.OptionalRef
}
