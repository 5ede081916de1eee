package guides

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	guidesRepo "guidepost/internal/domain/repositories/guides"
	"guidepost/internal/repository/postgres"
)

// PostgresJourneyRepository implements the JourneyRepository interface
type PostgresJourneyRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewJourneyRepository creates a new journey repository
func NewJourneyRepository(config *postgres.RepositoryConfig) guidesRepo.JourneyRepository {
	return &PostgresJourneyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new journey
func (r *PostgresJourneyRepository) Create(ctx context.Context, journey *models.Journey) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, slug, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Journeys)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		journey.ID,
		journey.Title,
		journey.Slug,
		journey.Summary,
		journey.CreatedAt,
		journey.UpdatedAt,
	)

	if err != nil {
		return r.classifyWriteError(ctx, journey, err, "create journey")
	}

	return nil
}

// GetByID retrieves a journey by ID
func (r *PostgresJourneyRepository) GetByID(ctx context.Context, id string) (*models.Journey, error) {
	query := fmt.Sprintf(`
		SELECT id, title, slug, summary, created_at, updated_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Journeys)

	return r.getOne(ctx, query, id, fmt.Sprintf("journey %s", id))
}

// GetBySlug retrieves a journey by its slug
func (r *PostgresJourneyRepository) GetBySlug(ctx context.Context, slug string) (*models.Journey, error) {
	query := fmt.Sprintf(`
		SELECT id, title, slug, summary, created_at, updated_at
		FROM %s
		WHERE slug = $1 AND deleted_at IS NULL
	`, r.tables.Journeys)

	return r.getOne(ctx, query, slug, fmt.Sprintf("journey %q", slug))
}

func (r *PostgresJourneyRepository) getOne(ctx context.Context, query, arg, what string) (*models.Journey, error) {
	var j models.Journey
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&j.ID,
		&j.Title,
		&j.Slug,
		&j.Summary,
		&j.CreatedAt,
		&j.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get journey: %w", err)
	}

	return &j, nil
}

// Update persists title, slug and summary
func (r *PostgresJourneyRepository) Update(ctx context.Context, journey *models.Journey) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, slug = $2, summary = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`, r.tables.Journeys)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		journey.Title,
		journey.Slug,
		journey.Summary,
		journey.UpdatedAt,
		journey.ID,
	)

	if err != nil {
		return r.classifyWriteError(ctx, journey, err, "update journey")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("journey %s: %w", journey.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete soft-deletes a journey and detaches its guides. Run inside a
// transaction so the two writes land together.
func (r *PostgresJourneyRepository) Delete(ctx context.Context, id string) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	detach := fmt.Sprintf(`
		UPDATE %s
		SET journey_id = NULL, milestone = 0, updated_at = NOW()
		WHERE journey_id = $1 AND deleted_at IS NULL
	`, r.tables.Guides)
	if _, err := executor.Exec(ctx, detach, id); err != nil {
		return fmt.Errorf("detach journey guides: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Journeys)

	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete journey: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("journey %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List returns all journeys ordered by creation time
func (r *PostgresJourneyRepository) List(ctx context.Context) ([]models.Journey, error) {
	query := fmt.Sprintf(`
		SELECT id, title, slug, summary, created_at, updated_at
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC
	`, r.tables.Journeys)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	defer rows.Close()

	journeys := []models.Journey{}
	for rows.Next() {
		var j models.Journey
		err := rows.Scan(
			&j.ID,
			&j.Title,
			&j.Slug,
			&j.Summary,
			&j.CreatedAt,
			&j.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan journey: %w", err)
		}
		journeys = append(journeys, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journeys: %w", err)
	}

	return journeys, nil
}

// classifyWriteError maps constraint violations to domain errors
func (r *PostgresJourneyRepository) classifyWriteError(ctx context.Context, journey *models.Journey, err error, op string) error {
	if postgres.IsPgDuplicateError(err) {
		existingID, queryErr := r.getExistingJourneyID(ctx, journey.Slug)
		if queryErr != nil {
			return fmt.Errorf("journey with slug %q already exists: %w", journey.Slug, domain.ErrConflict)
		}
		return &domain.ConflictError{
			Message:      fmt.Sprintf("journey with slug %q already exists", journey.Slug),
			ResourceType: "journey",
			ResourceID:   existingID,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// getExistingJourneyID finds the live journey occupying a slug
func (r *PostgresJourneyRepository) getExistingJourneyID(ctx context.Context, slug string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE slug = $1 AND deleted_at IS NULL
	`, r.tables.Journeys)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, slug).Scan(&id); err != nil {
		return "", fmt.Errorf("get existing journey ID: %w", err)
	}

	return id, nil
}
