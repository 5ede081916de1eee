package journey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"guidepost/internal/config"
	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	"guidepost/internal/domain/repositories"
	guidesRepo "guidepost/internal/domain/repositories/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
	"guidepost/internal/service/guide"
)

// journeyService implements the JourneyService interface
type journeyService struct {
	journeyRepo guidesRepo.JourneyRepository
	guideRepo   guidesRepo.GuideRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewJourneyService creates a new journey service
func NewJourneyService(
	journeyRepo guidesRepo.JourneyRepository,
	guideRepo guidesRepo.GuideRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) guidesSvc.JourneyService {
	return &journeyService{
		journeyRepo: journeyRepo,
		guideRepo:   guideRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateJourney creates a new journey
func (s *journeyService) CreateJourney(ctx context.Context, req *guidesSvc.CreateJourneyRequest) (*models.Journey, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = guide.Slugify(req.Title)
		if slug == "" {
			return nil, fmt.Errorf("%w: title %q produces an empty slug", domain.ErrValidation, req.Title)
		}
	} else if err := guide.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	journey := &models.Journey{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Slug:      slug,
		Summary:   req.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.journeyRepo.Create(ctx, journey); err != nil {
		return nil, err
	}

	s.logger.Info("journey created",
		"id", journey.ID,
		"slug", journey.Slug,
	)

	return journey, nil
}

// GetJourney retrieves a journey with its guides ordered by milestone
func (s *journeyService) GetJourney(ctx context.Context, id string) (*models.JourneyDetail, error) {
	return s.loadDetail(ctx, id)
}

// ListJourneys lists all journeys
func (s *journeyService) ListJourneys(ctx context.Context) ([]models.Journey, error) {
	return s.journeyRepo.List(ctx)
}

// UpdateJourney applies a partial update
func (s *journeyService) UpdateJourney(ctx context.Context, id string, req *guidesSvc.UpdateJourneyRequest) (*models.Journey, error) {
	journey, err := s.journeyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		if len(title) > config.MaxGuideTitleLength {
			return nil, fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, config.MaxGuideTitleLength)
		}
		journey.Title = title
	}

	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if err := guide.ValidateSlug(slug); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		journey.Slug = slug
	}

	if req.Summary.Present {
		journey.Summary = req.Summary.Value
	}

	journey.UpdatedAt = time.Now()

	if err := s.journeyRepo.Update(ctx, journey); err != nil {
		return nil, err
	}

	s.logger.Info("journey updated",
		"id", journey.ID,
		"slug", journey.Slug,
	)

	return journey, nil
}

// DeleteJourney soft-deletes a journey. Its guides survive as standalone
// guides; the repository detaches them.
func (s *journeyService) DeleteJourney(ctx context.Context, id string) error {
	if err := s.journeyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("journey deleted", "id", id)
	return nil
}

// ReorderMilestones rewrites the milestone order of a journey's guides.
// guideIDs must be a permutation of the journey's current guides; the rewrite
// runs in one transaction so a failure leaves the old order intact.
func (s *journeyService) ReorderMilestones(ctx context.Context, id string, guideIDs []string) (*models.JourneyDetail, error) {
	if _, err := s.journeyRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	current, err := s.guideRepo.List(ctx, &id)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(current, guideIDs); err != nil {
		return nil, err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.guideRepo.SetMilestones(txCtx, id, guideIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("journey milestones reordered",
		"id", id,
		"guides", len(guideIDs),
	)

	return s.loadDetail(ctx, id)
}

// validatePermutation checks that guideIDs names each of the journey's guides
// exactly once.
func validatePermutation(current []models.Guide, guideIDs []string) error {
	if len(guideIDs) != len(current) {
		return fmt.Errorf("%w: expected %d guide ids, got %d", domain.ErrValidation, len(current), len(guideIDs))
	}

	members := make(map[string]bool, len(current))
	for _, g := range current {
		members[g.ID] = true
	}

	seen := make(map[string]bool, len(guideIDs))
	for _, id := range guideIDs {
		if seen[id] {
			return fmt.Errorf("%w: guide id %s appears twice", domain.ErrValidation, id)
		}
		seen[id] = true
		if !members[id] {
			return fmt.Errorf("%w: guide %s is not part of this journey", domain.ErrValidation, id)
		}
	}
	return nil
}

func (s *journeyService) loadDetail(ctx context.Context, id string) (*models.JourneyDetail, error) {
	journey, err := s.journeyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	guides, err := s.guideRepo.List(ctx, &id)
	if err != nil {
		return nil, err
	}
	return &models.JourneyDetail{
		Journey: *journey,
		Guides:  guides,
	}, nil
}

// validateCreateRequest validates a journey creation request
func (s *journeyService) validateCreateRequest(req *guidesSvc.CreateJourneyRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxGuideTitleLength),
		),
		validation.Field(&req.Slug,
			validation.Length(0, config.MaxSlugLength),
		),
		validation.Field(&req.Summary,
			validation.Length(0, config.MaxSummaryLength),
		),
	)
}
