package guides

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	guidesRepo "guidepost/internal/domain/repositories/guides"
	"guidepost/internal/repository/postgres"
)

// PostgresGuideRepository implements the GuideRepository interface
type PostgresGuideRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewGuideRepository creates a new guide repository
func NewGuideRepository(config *postgres.RepositoryConfig) guidesRepo.GuideRepository {
	return &PostgresGuideRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new guide
func (r *PostgresGuideRepository) Create(ctx context.Context, guide *models.Guide) error {
	blocks, err := marshalBlocks(guide.Blocks)
	if err != nil {
		return fmt.Errorf("encode blocks: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, journey_id, title, slug, source_url, blocks, search_text, milestone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		guide.ID,
		guide.JourneyID,
		guide.Title,
		guide.Slug,
		guide.SourceURL,
		blocks,
		models.PlainText(guide.Blocks),
		guide.Milestone,
		guide.CreatedAt,
		guide.UpdatedAt,
	)

	if err != nil {
		return r.classifyWriteError(ctx, guide, err, "create guide")
	}

	return nil
}

// GetByID retrieves a guide by ID
func (r *PostgresGuideRepository) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	query := fmt.Sprintf(`
		SELECT id, journey_id, title, slug, source_url, blocks, milestone, created_at, updated_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	guide, err := scanGuide(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("guide %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get guide: %w", err)
	}

	return guide, nil
}

// GetBySlug retrieves a guide by its slug
func (r *PostgresGuideRepository) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	query := fmt.Sprintf(`
		SELECT id, journey_id, title, slug, source_url, blocks, milestone, created_at, updated_at
		FROM %s
		WHERE slug = $1 AND deleted_at IS NULL
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	guide, err := scanGuide(executor.QueryRow(ctx, query, slug))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("guide %q: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get guide by slug: %w", err)
	}

	return guide, nil
}

// Update persists all mutable guide fields
func (r *PostgresGuideRepository) Update(ctx context.Context, guide *models.Guide) error {
	blocks, err := marshalBlocks(guide.Blocks)
	if err != nil {
		return fmt.Errorf("encode blocks: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET journey_id = $1, title = $2, slug = $3, source_url = $4, blocks = $5,
		    search_text = $6, milestone = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		guide.JourneyID,
		guide.Title,
		guide.Slug,
		guide.SourceURL,
		blocks,
		models.PlainText(guide.Blocks),
		guide.Milestone,
		guide.UpdatedAt,
		guide.ID,
	)

	if err != nil {
		return r.classifyWriteError(ctx, guide, err, "update guide")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guide %s: %w", guide.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete soft-deletes a guide
func (r *PostgresGuideRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete guide: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guide %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List returns guide metadata without block trees, ordered by milestone then
// creation time
func (r *PostgresGuideRepository) List(ctx context.Context, journeyID *string) ([]models.Guide, error) {
	query := fmt.Sprintf(`
		SELECT id, journey_id, title, slug, source_url, milestone, created_at, updated_at
		FROM %s
		WHERE deleted_at IS NULL
	`, r.tables.Guides)

	var args []any
	if journeyID != nil {
		query += ` AND journey_id = $1`
		args = append(args, *journeyID)
	}
	query += ` ORDER BY milestone ASC, created_at ASC`

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	defer rows.Close()

	guides := []models.Guide{}
	for rows.Next() {
		var g models.Guide
		err := rows.Scan(
			&g.ID,
			&g.JourneyID,
			&g.Title,
			&g.Slug,
			&g.SourceURL,
			&g.Milestone,
			&g.CreatedAt,
			&g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan guide: %w", err)
		}
		guides = append(guides, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guides: %w", err)
	}

	return guides, nil
}

// Search performs PostgreSQL full-text search over titles and block text.
// Title matches are weighted 2x over body matches; results carry a
// ts_headline excerpt.
func (r *PostgresGuideRepository) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search options: %w", &domain.ValidationError{Message: err.Error()})
	}

	query := fmt.Sprintf(`
		SELECT id, journey_id, title, slug, source_url, milestone, created_at, updated_at,
		       ts_headline($1, search_text, websearch_to_tsquery($1, $2),
		                   'MaxWords=50, MinWords=20, MaxFragments=1') AS excerpt,
		       (ts_rank(to_tsvector($1, title), websearch_to_tsquery($1, $2)) * 2.0 +
		        ts_rank(to_tsvector($1, search_text), websearch_to_tsquery($1, $2))) AS rank_score
		FROM %s
		WHERE deleted_at IS NULL
		  AND (to_tsvector($1, title) @@ websearch_to_tsquery($1, $2)
		       OR to_tsvector($1, search_text) @@ websearch_to_tsquery($1, $2))
	`, r.tables.Guides)

	args := []any{opts.Language, opts.Query}
	paramIndex := 3

	if opts.JourneyID != "" {
		query += fmt.Sprintf(` AND journey_id = $%d`, paramIndex)
		args = append(args, opts.JourneyID)
		paramIndex++
	}

	query += fmt.Sprintf(` ORDER BY rank_score DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, opts.Limit, opts.Offset)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text search query failed: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var res models.SearchResult
		err := rows.Scan(
			&res.Guide.ID,
			&res.Guide.JourneyID,
			&res.Guide.Title,
			&res.Guide.Slug,
			&res.Guide.SourceURL,
			&res.Guide.Milestone,
			&res.Guide.CreatedAt,
			&res.Guide.UpdatedAt,
			&res.Excerpt,
			&res.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	totalCount, err := r.countSearchMatches(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("count total matches: %w", err)
	}

	return models.NewSearchResults(results, totalCount, opts), nil
}

// countSearchMatches counts matching guides without limit/offset
func (r *PostgresGuideRepository) countSearchMatches(ctx context.Context, opts *models.SearchOptions) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE deleted_at IS NULL
		  AND (to_tsvector($1, title) @@ websearch_to_tsquery($1, $2)
		       OR to_tsvector($1, search_text) @@ websearch_to_tsquery($1, $2))
	`, r.tables.Guides)

	args := []any{opts.Language, opts.Query}
	if opts.JourneyID != "" {
		query += ` AND journey_id = $3`
		args = append(args, opts.JourneyID)
	}

	var total int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}

	return total, nil
}

// SetMilestones rewrites milestone positions for the journey's guides in the
// given order. Callers validate the ID set and usually wrap this in a
// transaction.
func (r *PostgresGuideRepository) SetMilestones(ctx context.Context, journeyID string, guideIDs []string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET milestone = $1, updated_at = NOW()
		WHERE id = $2 AND journey_id = $3 AND deleted_at IS NULL
	`, r.tables.Guides)

	executor := postgres.GetExecutor(ctx, r.pool)
	for i, id := range guideIDs {
		result, err := executor.Exec(ctx, query, i+1, id, journeyID)
		if err != nil {
			return fmt.Errorf("set milestone for guide %s: %w", id, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("guide %s is not part of journey %s: %w", id, journeyID, domain.ErrNotFound)
		}
	}

	return nil
}

// classifyWriteError maps constraint violations to domain errors
func (r *PostgresGuideRepository) classifyWriteError(ctx context.Context, guide *models.Guide, err error, op string) error {
	if postgres.IsPgDuplicateError(err) {
		existingID, queryErr := r.getExistingGuideID(ctx, guide.Slug)
		if queryErr != nil {
			return fmt.Errorf("guide with slug %q already exists: %w", guide.Slug, domain.ErrConflict)
		}
		return &domain.ConflictError{
			Message:      fmt.Sprintf("guide with slug %q already exists", guide.Slug),
			ResourceType: "guide",
			ResourceID:   existingID,
		}
	}
	if postgres.IsPgForeignKeyError(err) {
		journeyID := ""
		if guide.JourneyID != nil {
			journeyID = *guide.JourneyID
		}
		return &domain.ValidationError{Message: fmt.Sprintf("journey %s does not exist", journeyID)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// getExistingGuideID finds the live guide occupying a slug
func (r *PostgresGuideRepository) getExistingGuideID(ctx context.Context, slug string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE slug = $1 AND deleted_at IS NULL
	`, r.tables.Guides)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, slug).Scan(&id); err != nil {
		return "", fmt.Errorf("get existing guide ID: %w", err)
	}

	return id, nil
}

func marshalBlocks(blocks []models.Block) ([]byte, error) {
	if blocks == nil {
		blocks = []models.Block{}
	}
	return json.Marshal(blocks)
}

// rowScanner covers pgx.Row for the single-guide scans
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuide(row rowScanner) (*models.Guide, error) {
	var g models.Guide
	var blocks []byte
	err := row.Scan(
		&g.ID,
		&g.JourneyID,
		&g.Title,
		&g.Slug,
		&g.SourceURL,
		&blocks,
		&g.Milestone,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(blocks, &g.Blocks); err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}

	return &g, nil
}
