package guides

import (
	"context"

	"guidepost/internal/domain/models/guides"
)

// GuideService handles guide business logic
type GuideService interface {
	// CreateGuide creates a guide, optionally building its block tree by
	// running req.HTML through the content pipeline
	CreateGuide(ctx context.Context, req *CreateGuideRequest) (*guides.Guide, error)

	// GetGuide retrieves a guide by ID
	GetGuide(ctx context.Context, id string) (*guides.Guide, error)

	// ListGuides lists guides, optionally restricted to one journey
	ListGuides(ctx context.Context, journeyID *string) ([]guides.Guide, error)

	// SearchGuides performs full-text search over titles and block text
	SearchGuides(ctx context.Context, req *SearchGuidesRequest) (*guides.SearchResults, error)

	// UpdateGuide applies a partial update
	UpdateGuide(ctx context.Context, id string, req *UpdateGuideRequest) (*guides.Guide, error)

	// DeleteGuide soft-deletes a guide
	DeleteGuide(ctx context.Context, id string) error

	// ApplyBlockOp inserts, removes or moves a single block and returns the
	// updated guide. Moves are confined to the block's current parent.
	ApplyBlockOp(ctx context.Context, id string, op *BlockOp) (*guides.Guide, error)

	// ImportArchive imports guides from a zip of .md and .html files.
	// Per-file failures are collected, not fatal.
	ImportArchive(ctx context.Context, archive []byte) (*ImportResult, error)
}

// CreateGuideRequest represents a guide creation request
type CreateGuideRequest struct {
	Title     string  `json:"title"`
	Slug      string  `json:"slug,omitempty"` // derived from Title when empty
	SourceURL *string `json:"source_url,omitempty"`
	JourneyID *string `json:"journey_id,omitempty"`
	Milestone int     `json:"milestone,omitempty"`

	// HTML, when set, is sanitized and parsed into the guide's blocks using
	// SourceURL as the trust base. BypassTrustCheck is honored only when the
	// server runs in dev mode.
	HTML             string `json:"html,omitempty"`
	BypassTrustCheck bool   `json:"bypassTrustCheck,omitempty"`
}

// UpdateGuideRequest represents a partial guide update. Nil pointer fields
// are left unchanged; SourceURL and JourneyID are tri-state (mapped from the
// handler DTO, hence no JSON tags).
type UpdateGuideRequest struct {
	Title     *string `json:"title,omitempty"`
	Slug      *string `json:"slug,omitempty"`
	Milestone *int    `json:"milestone,omitempty"`
	SourceURL guides.OptionalRef
	JourneyID guides.OptionalRef

	// Blocks, when non-nil, replaces the whole block tree
	Blocks []guides.Block `json:"blocks,omitempty"`
}

// SearchGuidesRequest represents a guide search request
type SearchGuidesRequest struct {
	Query     string `json:"query"`
	JourneyID string `json:"journey_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Language  string `json:"language,omitempty"`
}

// BlockOpKind discriminates block operations
type BlockOpKind string

const (
	BlockOpInsert BlockOpKind = "insert"
	BlockOpRemove BlockOpKind = "remove"
	BlockOpMove   BlockOpKind = "move"
)

// BlockOp is a single block mutation. ParentID scopes the operation: empty
// means the root block list. Move targets BlockID and repositions it at
// Index within its current parent only; a ParentID naming a different parent
// is rejected.
type BlockOp struct {
	Op       BlockOpKind   `json:"op"`
	ParentID string        `json:"parent_id,omitempty"`
	BlockID  string        `json:"block_id,omitempty"`
	Index    int           `json:"index"`
	Block    *guides.Block `json:"block,omitempty"`
}

// ImportResult represents the result of a bulk import operation
type ImportResult struct {
	Summary ImportSummary `json:"summary"`
	Errors  []ImportError `json:"errors"`
	Guides  []ImportGuide `json:"guides"`
}

// ImportSummary contains aggregate statistics for an import operation
type ImportSummary struct {
	Created    int `json:"created"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	TotalFiles int `json:"total_files"`
}

// ImportError represents a per-file import failure
type ImportError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ImportGuide represents a successfully imported guide
type ImportGuide struct {
	ID    string `json:"id"`
	File  string `json:"file"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}
