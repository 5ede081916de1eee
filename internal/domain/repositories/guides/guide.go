package guides

import (
	"context"

	"guidepost/internal/domain/models/guides"
)

// GuideRepository defines data access operations for guides. Reads exclude
// soft-deleted rows.
type GuideRepository interface {
	// Create inserts a new guide
	Create(ctx context.Context, guide *guides.Guide) error

	// GetByID retrieves a guide by ID
	GetByID(ctx context.Context, id string) (*guides.Guide, error)

	// GetBySlug retrieves a guide by its slug
	GetBySlug(ctx context.Context, slug string) (*guides.Guide, error)

	// Update persists title, slug, source URL, journey assignment, milestone
	// and the block tree
	Update(ctx context.Context, guide *guides.Guide) error

	// Delete soft-deletes a guide
	Delete(ctx context.Context, id string) error

	// List returns guides, optionally restricted to one journey, ordered by
	// milestone then creation time
	List(ctx context.Context, journeyID *string) ([]guides.Guide, error)

	// Search performs full-text search over guide titles and block text
	Search(ctx context.Context, opts *guides.SearchOptions) (*guides.SearchResults, error)

	// SetMilestones rewrites the milestone ordering for a journey's guides.
	// guideIDs must be exactly the journey's current guides.
	SetMilestones(ctx context.Context, journeyID string, guideIDs []string) error
}
