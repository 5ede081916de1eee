package journey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	"guidepost/internal/domain/repositories"
	guidesSvc "guidepost/internal/domain/services/guides"
)

type fakeJourneyRepo struct {
	journeys map[string]*models.Journey
	guides   *fakeGuideRepo
}

func (f *fakeJourneyRepo) Create(_ context.Context, journey *models.Journey) error {
	for _, existing := range f.journeys {
		if existing.Slug == journey.Slug && existing.DeletedAt == nil {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("journey with slug %q already exists", journey.Slug),
				ResourceType: "journey",
				ResourceID:   existing.ID,
			}
		}
	}
	clone := *journey
	f.journeys[journey.ID] = &clone
	return nil
}

func (f *fakeJourneyRepo) GetByID(_ context.Context, id string) (*models.Journey, error) {
	journey, ok := f.journeys[id]
	if !ok || journey.DeletedAt != nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("journey %s not found", id)}
	}
	clone := *journey
	return &clone, nil
}

func (f *fakeJourneyRepo) GetBySlug(_ context.Context, slug string) (*models.Journey, error) {
	for _, journey := range f.journeys {
		if journey.Slug == slug && journey.DeletedAt == nil {
			clone := *journey
			return &clone, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("journey with slug %q not found", slug)}
}

func (f *fakeJourneyRepo) Update(_ context.Context, journey *models.Journey) error {
	existing, ok := f.journeys[journey.ID]
	if !ok || existing.DeletedAt != nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("journey %s not found", journey.ID)}
	}
	clone := *journey
	f.journeys[journey.ID] = &clone
	return nil
}

func (f *fakeJourneyRepo) Delete(_ context.Context, id string) error {
	journey, ok := f.journeys[id]
	if !ok || journey.DeletedAt != nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("journey %s not found", id)}
	}
	now := time.Now()
	journey.DeletedAt = &now
	for _, guide := range f.guides.guides {
		if guide.JourneyID != nil && *guide.JourneyID == id {
			guide.JourneyID = nil
			guide.Milestone = 0
		}
	}
	return nil
}

func (f *fakeJourneyRepo) List(_ context.Context) ([]models.Journey, error) {
	out := []models.Journey{}
	for _, journey := range f.journeys {
		if journey.DeletedAt == nil {
			out = append(out, *journey)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeGuideRepo struct {
	guides map[string]*models.Guide
}

func (f *fakeGuideRepo) Create(_ context.Context, guide *models.Guide) error {
	clone := *guide
	f.guides[guide.ID] = &clone
	return nil
}

func (f *fakeGuideRepo) GetByID(_ context.Context, id string) (*models.Guide, error) {
	guide, ok := f.guides[id]
	if !ok || guide.DeletedAt != nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("guide %s not found", id)}
	}
	clone := *guide
	return &clone, nil
}

func (f *fakeGuideRepo) GetBySlug(_ context.Context, slug string) (*models.Guide, error) {
	for _, guide := range f.guides {
		if guide.Slug == slug && guide.DeletedAt == nil {
			clone := *guide
			return &clone, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("guide with slug %q not found", slug)}
}

func (f *fakeGuideRepo) Update(_ context.Context, guide *models.Guide) error {
	if _, ok := f.guides[guide.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("guide %s not found", guide.ID)}
	}
	clone := *guide
	f.guides[guide.ID] = &clone
	return nil
}

func (f *fakeGuideRepo) Delete(_ context.Context, id string) error {
	guide, ok := f.guides[id]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("guide %s not found", id)}
	}
	now := time.Now()
	guide.DeletedAt = &now
	return nil
}

func (f *fakeGuideRepo) List(_ context.Context, journeyID *string) ([]models.Guide, error) {
	out := []models.Guide{}
	for _, guide := range f.guides {
		if guide.DeletedAt != nil {
			continue
		}
		if journeyID != nil && (guide.JourneyID == nil || *guide.JourneyID != *journeyID) {
			continue
		}
		out = append(out, *guide)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Milestone != out[j].Milestone {
			return out[i].Milestone < out[j].Milestone
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeGuideRepo) Search(_ context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	return models.NewSearchResults([]models.SearchResult{}, 0, opts), nil
}

func (f *fakeGuideRepo) SetMilestones(_ context.Context, journeyID string, guideIDs []string) error {
	for i, id := range guideIDs {
		guide, ok := f.guides[id]
		if !ok || guide.JourneyID == nil || *guide.JourneyID != journeyID {
			return &domain.NotFoundError{Message: fmt.Sprintf("guide %s is not part of journey %s", id, journeyID)}
		}
		guide.Milestone = i + 1
	}
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestService(t *testing.T) (guidesSvc.JourneyService, *fakeJourneyRepo, *fakeGuideRepo) {
	t.Helper()
	guideRepo := &fakeGuideRepo{guides: make(map[string]*models.Guide)}
	journeyRepo := &fakeJourneyRepo{journeys: make(map[string]*models.Journey), guides: guideRepo}
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	svc := NewJourneyService(journeyRepo, guideRepo, fakeTxManager{}, logger)
	return svc, journeyRepo, guideRepo
}

func seedGuide(repo *fakeGuideRepo, id, journeyID string, milestone int, created time.Time) {
	repo.guides[id] = &models.Guide{
		ID:        id,
		JourneyID: &journeyID,
		Title:     "Guide " + id,
		Slug:      "guide-" + id,
		Milestone: milestone,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestCreateJourneyDerivesSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	journey, err := svc.CreateJourney(context.Background(), &guidesSvc.CreateJourneyRequest{
		Title: "Grafana Alerting Journey",
	})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}
	if journey.Slug != "grafana-alerting-journey" {
		t.Errorf("Slug = %q, want %q", journey.Slug, "grafana-alerting-journey")
	}
	if journey.ID == "" {
		t.Errorf("ID not minted")
	}
}

func TestCreateJourneyValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name string
		req  *guidesSvc.CreateJourneyRequest
	}{
		{"empty title", &guidesSvc.CreateJourneyRequest{Title: ""}},
		{"bad slug", &guidesSvc.CreateJourneyRequest{Title: "Ok", Slug: "Not A Slug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateJourney(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateJourney() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateJourneyDuplicateSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Twice"}); err != nil {
		t.Fatalf("first CreateJourney() error = %v", err)
	}
	_, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Twice"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second CreateJourney() error = %v, want ErrConflict", err)
	}
}

func TestGetJourneyOrdersGuidesByMilestone(t *testing.T) {
	svc, _, guideRepo := newTestService(t)
	ctx := context.Background()

	journey, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Ordered"})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}

	base := time.Now()
	seedGuide(guideRepo, "g2", journey.ID, 2, base)
	seedGuide(guideRepo, "g1", journey.ID, 1, base.Add(time.Second))
	seedGuide(guideRepo, "g3", journey.ID, 3, base.Add(2*time.Second))

	detail, err := svc.GetJourney(ctx, journey.ID)
	if err != nil {
		t.Fatalf("GetJourney() error = %v", err)
	}
	if len(detail.Guides) != 3 {
		t.Fatalf("len(Guides) = %d, want 3", len(detail.Guides))
	}
	for i, want := range []string{"g1", "g2", "g3"} {
		if detail.Guides[i].ID != want {
			t.Errorf("Guides[%d].ID = %q, want %q", i, detail.Guides[i].ID, want)
		}
	}
}

func TestUpdateJourneyTriState(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	summary := "A summary"
	created, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Trist", Summary: &summary})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}

	updated, err := svc.UpdateJourney(ctx, created.ID, &guidesSvc.UpdateJourneyRequest{})
	if err != nil {
		t.Fatalf("UpdateJourney() error = %v", err)
	}
	if updated.Summary == nil || *updated.Summary != summary {
		t.Errorf("Summary changed by empty update: %v", updated.Summary)
	}

	updated, err = svc.UpdateJourney(ctx, created.ID, &guidesSvc.UpdateJourneyRequest{
		Summary: models.OptionalRef{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("UpdateJourney() error = %v", err)
	}
	if updated.Summary != nil {
		t.Errorf("Summary = %q, want nil after explicit clear", *updated.Summary)
	}
}

func TestReorderMilestones(t *testing.T) {
	svc, _, guideRepo := newTestService(t)
	ctx := context.Background()

	journey, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Reorder"})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}
	base := time.Now()
	seedGuide(guideRepo, "a", journey.ID, 1, base)
	seedGuide(guideRepo, "b", journey.ID, 2, base.Add(time.Second))
	seedGuide(guideRepo, "c", journey.ID, 3, base.Add(2*time.Second))

	detail, err := svc.ReorderMilestones(ctx, journey.ID, []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("ReorderMilestones() error = %v", err)
	}
	for i, want := range []string{"c", "a", "b"} {
		if detail.Guides[i].ID != want {
			t.Errorf("Guides[%d].ID = %q, want %q", i, detail.Guides[i].ID, want)
		}
		if detail.Guides[i].Milestone != i+1 {
			t.Errorf("Guides[%d].Milestone = %d, want %d", i, detail.Guides[i].Milestone, i+1)
		}
	}
}

func TestReorderMilestonesRejectsBadPermutations(t *testing.T) {
	svc, _, guideRepo := newTestService(t)
	ctx := context.Background()

	journey, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Strict"})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}
	base := time.Now()
	seedGuide(guideRepo, "a", journey.ID, 1, base)
	seedGuide(guideRepo, "b", journey.ID, 2, base.Add(time.Second))

	tests := []struct {
		name     string
		guideIDs []string
	}{
		{"too few ids", []string{"a"}},
		{"duplicate id", []string{"a", "a"}},
		{"foreign id", []string{"a", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ReorderMilestones(ctx, journey.ID, tt.guideIDs)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ReorderMilestones(%v) error = %v, want ErrValidation", tt.guideIDs, err)
			}
		})
	}

	// Order is untouched after the rejections.
	detail, err := svc.GetJourney(ctx, journey.ID)
	if err != nil {
		t.Fatalf("GetJourney() error = %v", err)
	}
	if detail.Guides[0].ID != "a" || detail.Guides[1].ID != "b" {
		t.Errorf("guide order changed by rejected reorder")
	}
}

func TestReorderMilestonesMissingJourney(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ReorderMilestones(context.Background(), "ghost", []string{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ReorderMilestones() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteJourneyDetachesGuides(t *testing.T) {
	svc, journeyRepo, guideRepo := newTestService(t)
	ctx := context.Background()

	journey, err := svc.CreateJourney(ctx, &guidesSvc.CreateJourneyRequest{Title: "Detach"})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}
	seedGuide(guideRepo, "a", journey.ID, 1, time.Now())

	if err := svc.DeleteJourney(ctx, journey.ID); err != nil {
		t.Fatalf("DeleteJourney() error = %v", err)
	}

	if _, err := svc.GetJourney(ctx, journey.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetJourney() after delete error = %v, want ErrNotFound", err)
	}
	if journeyRepo.journeys[journey.ID].DeletedAt == nil {
		t.Errorf("journey not soft-deleted")
	}
	if guide := guideRepo.guides["a"]; guide.JourneyID != nil || guide.Milestone != 0 {
		t.Errorf("guide not detached: journey=%v milestone=%d", guide.JourneyID, guide.Milestone)
	}
}
