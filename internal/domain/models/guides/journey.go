package guides

import (
	"time"
)

// Journey is an ordered set of milestone guides.
type Journey struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Slug      string     `json:"slug" db:"slug"`
	Summary   *string    `json:"summary,omitempty" db:"summary"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// JourneyDetail is a journey with its guides ordered by milestone.
type JourneyDetail struct {
	Journey
	Guides []Guide `json:"guides"`
}
