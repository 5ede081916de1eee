package guides

import (
	"context"

	"guidepost/internal/domain/models/guides"
)

// JourneyRepository defines data access operations for journeys. Reads
// exclude soft-deleted rows.
type JourneyRepository interface {
	// Create inserts a new journey
	Create(ctx context.Context, journey *guides.Journey) error

	// GetByID retrieves a journey by ID
	GetByID(ctx context.Context, id string) (*guides.Journey, error)

	// GetBySlug retrieves a journey by its slug
	GetBySlug(ctx context.Context, slug string) (*guides.Journey, error)

	// Update persists title, slug and summary
	Update(ctx context.Context, journey *guides.Journey) error

	// Delete soft-deletes a journey and detaches its guides
	Delete(ctx context.Context, id string) error

	// List returns all journeys ordered by creation time
	List(ctx context.Context) ([]guides.Journey, error)
}
