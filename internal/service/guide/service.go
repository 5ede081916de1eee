package guide

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"guidepost/internal/config"
	"guidepost/internal/domain"
	contentModels "guidepost/internal/domain/models/content"
	models "guidepost/internal/domain/models/guides"
	guidesRepo "guidepost/internal/domain/repositories/guides"
	"guidepost/internal/domain/services"
	guidesSvc "guidepost/internal/domain/services/guides"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// guideService implements the GuideService interface
type guideService struct {
	guideRepo guidesRepo.GuideRepository
	sanitizer services.ContentSanitizer
	parser    services.ContentParser
	devMode   bool
	logger    *slog.Logger
}

// NewGuideService creates a new guide service. devMode controls whether
// bypassTrustCheck requests are honored.
func NewGuideService(
	guideRepo guidesRepo.GuideRepository,
	sanitizer services.ContentSanitizer,
	parser services.ContentParser,
	devMode bool,
	logger *slog.Logger,
) guidesSvc.GuideService {
	return &guideService{
		guideRepo: guideRepo,
		sanitizer: sanitizer,
		parser:    parser,
		devMode:   devMode,
		logger:    logger,
	}
}

// CreateGuide creates a guide. When the request carries HTML, it runs through
// the sanitize + parse pipeline and the resulting element tree becomes the
// guide's blocks; a pipeline rejection fails the whole create.
func (s *guideService) CreateGuide(ctx context.Context, req *guidesSvc.CreateGuideRequest) (*models.Guide, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(req.Title)
		if slug == "" {
			return nil, fmt.Errorf("%w: title %q produces an empty slug", domain.ErrValidation, req.Title)
		}
	}

	var blocks []models.Block
	if req.HTML != "" {
		built, err := s.buildBlocks(req.HTML, req.SourceURL, req.BypassTrustCheck)
		if err != nil {
			return nil, err
		}
		blocks = built
	}

	now := time.Now()
	guide := &models.Guide{
		ID:        uuid.NewString(),
		JourneyID: normalizeRef(req.JourneyID),
		Title:     strings.TrimSpace(req.Title),
		Slug:      slug,
		SourceURL: normalizeRef(req.SourceURL),
		Blocks:    blocks,
		Milestone: req.Milestone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.guideRepo.Create(ctx, guide); err != nil {
		return nil, err
	}

	s.logger.Info("guide created",
		"id", guide.ID,
		"slug", guide.Slug,
		"journey_id", refString(guide.JourneyID),
		"blocks", len(guide.Blocks),
	)

	return guide, nil
}

// buildBlocks runs HTML through the content pipeline. The source URL is the
// trust base; bypass is honored only in dev mode.
func (s *guideService) buildBlocks(html string, sourceURL *string, bypass bool) ([]models.Block, error) {
	if len(html) > config.MaxContentBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", domain.ErrValidation, config.MaxContentBytes)
	}

	baseURL := ""
	if sourceURL != nil {
		baseURL = *sourceURL
	}

	clean := s.sanitizer.Sanitize(html)
	result := s.parser.Parse(clean, contentModels.ParseOptions{
		BaseURL:          baseURL,
		BypassTrustCheck: bypass && s.devMode,
	})
	if !result.IsValid {
		msg := "content rejected"
		if len(result.Errors) > 0 {
			msg = result.Errors[0].Message
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}

	return models.BlocksFromParsed(result.Data.Elements, uuid.NewString), nil
}

// GetGuide retrieves a guide by ID
func (s *guideService) GetGuide(ctx context.Context, id string) (*models.Guide, error) {
	return s.guideRepo.GetByID(ctx, id)
}

// ListGuides lists guides, optionally restricted to one journey
func (s *guideService) ListGuides(ctx context.Context, journeyID *string) ([]models.Guide, error) {
	return s.guideRepo.List(ctx, journeyID)
}

// SearchGuides performs full-text search over titles and block text
func (s *guideService) SearchGuides(ctx context.Context, req *guidesSvc.SearchGuidesRequest) (*models.SearchResults, error) {
	opts := &models.SearchOptions{
		Query:     strings.TrimSpace(req.Query),
		JourneyID: req.JourneyID,
		Limit:     req.Limit,
		Offset:    req.Offset,
		Language:  req.Language,
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.guideRepo.Search(ctx, opts)
}

// UpdateGuide applies a partial update. Clearing the journey reference also
// resets the milestone, since milestones only order guides inside a journey.
func (s *guideService) UpdateGuide(ctx context.Context, id string, req *guidesSvc.UpdateGuideRequest) (*models.Guide, error) {
	guide, err := s.guideRepo.GetByID(ctx, id)
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
		guide.Title = title
	}

	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if err := ValidateSlug(slug); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		guide.Slug = slug
	}

	if req.SourceURL.Present {
		guide.SourceURL = req.SourceURL.Value
	}

	if req.JourneyID.Present {
		guide.JourneyID = req.JourneyID.Value
		if guide.JourneyID == nil {
			guide.Milestone = 0
		}
	}

	if req.Milestone != nil {
		if *req.Milestone < 0 {
			return nil, fmt.Errorf("%w: milestone cannot be negative", domain.ErrValidation)
		}
		guide.Milestone = *req.Milestone
	}

	if req.Blocks != nil {
		guide.Blocks = mintBlockIDs(req.Blocks)
	}

	guide.UpdatedAt = time.Now()

	if err := s.guideRepo.Update(ctx, guide); err != nil {
		return nil, err
	}

	s.logger.Info("guide updated",
		"id", guide.ID,
		"slug", guide.Slug,
	)

	return guide, nil
}

// DeleteGuide soft-deletes a guide
func (s *guideService) DeleteGuide(ctx context.Context, id string) error {
	if err := s.guideRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("guide deleted", "id", id)
	return nil
}

// validateCreateRequest validates a guide creation request
func (s *guideService) validateCreateRequest(req *guidesSvc.CreateGuideRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxGuideTitleLength),
		),
		validation.Field(&req.Slug,
			validation.Length(0, config.MaxSlugLength),
			validation.Match(slugPattern).Error("slug must be lowercase letters, digits and hyphens"),
		),
		validation.Field(&req.Milestone, validation.Min(0)),
		validation.Field(&req.SourceURL, validation.By(optionalURLRule)),
	)
}

// optionalURLRule accepts nil or a non-empty string. Trust classification of
// the URL happens in the pipeline, not here.
func optionalURLRule(value any) error {
	ptr, ok := value.(*string)
	if !ok || ptr == nil {
		return nil
	}
	if strings.TrimSpace(*ptr) == "" {
		return fmt.Errorf("source_url cannot be blank")
	}
	return nil
}

// ValidateSlug checks slug shape and length. Shared with the journey service,
// which uses the same slug rules.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(slug) > config.MaxSlugLength {
		return fmt.Errorf("slug exceeds %d characters", config.MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug must be lowercase letters, digits and hyphens")
	}
	return nil
}

// Slugify derives a URL slug from a title: lowercase, runs of anything but
// letters and digits become single hyphens.
func Slugify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	lastHyphen := true
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > config.MaxSlugLength {
		slug = strings.Trim(slug[:config.MaxSlugLength], "-")
	}
	return slug
}

// mintBlockIDs fills in missing block IDs so every node is addressable.
func mintBlockIDs(blocks []models.Block) []models.Block {
	if blocks == nil {
		return nil
	}
	out := make([]models.Block, len(blocks))
	for i, b := range blocks {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.Children = mintBlockIDs(b.Children)
		out[i] = b
	}
	return out
}

func normalizeRef(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ptr)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func refString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
