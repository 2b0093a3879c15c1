package learning

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"brandintel_server/config"
	"brandintel_server/core/domain"
)

// =============================================================================
// In-memory repositories
// =============================================================================

type memLearningRepo struct {
	mu      sync.Mutex
	records map[string]*domain.BrandLearningRecord
}

func newMemLearningRepo() *memLearningRepo {
	return &memLearningRepo{records: make(map[string]*domain.BrandLearningRecord)}
}

func (m *memLearningRepo) Get(ctx context.Context, brandKey string) (*domain.BrandLearningRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[brandKey]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (m *memLearningRepo) Put(ctx context.Context, record *domain.BrandLearningRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[record.BrandKey] = &clone
	return nil
}

type memGlobalRepo struct {
	mu       sync.Mutex
	brands   map[string]*domain.GlobalBrandIntelligenceRecord
	profiles map[uuid.UUID]*domain.UserEngagementRecord
}

func newMemGlobalRepo() *memGlobalRepo {
	return &memGlobalRepo{
		brands:   make(map[string]*domain.GlobalBrandIntelligenceRecord),
		profiles: make(map[uuid.UUID]*domain.UserEngagementRecord),
	}
}

func (m *memGlobalRepo) GetBrandIntel(ctx context.Context, brandKey string) (*domain.GlobalBrandIntelligenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brands[brandKey], nil
}

func (m *memGlobalRepo) PutBrandIntel(ctx context.Context, record *domain.GlobalBrandIntelligenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brands[record.BrandKey] = record
	return nil
}

func (m *memGlobalRepo) GetUserEngagement(ctx context.Context, userID uuid.UUID) (*domain.UserEngagementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *memGlobalRepo) PutUserEngagement(ctx context.Context, record *domain.UserEngagementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[record.UserID] = record
	return nil
}

func (m *memGlobalRepo) ListSimilarEngagement(ctx context.Context, exclude uuid.UUID, ratio, tolerance float64, minRatings, limit int) ([]*domain.UserEngagementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.UserEngagementRecord
	for id, profile := range m.profiles {
		if id == exclude || profile.TotalRatings < minRatings {
			continue
		}
		if math.Abs(profile.PositiveRatio-ratio) > tolerance {
			continue
		}
		result = append(result, profile)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

type memAuditLog struct {
	mu     sync.Mutex
	events []*domain.FeedbackEvent
}

func (m *memAuditLog) Append(ctx context.Context, event *domain.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memAuditLog) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.FeedbackEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.FeedbackEvent
	for _, event := range m.events {
		if event.UserID == userID {
			result = append(result, event)
		}
	}
	return result, nil
}

type learningFixture struct {
	svc      *Service
	learning *memLearningRepo
	global   *memGlobalRepo
	audit    *memAuditLog
}

func newFixture(t *testing.T) *learningFixture {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	learning := newMemLearningRepo()
	global := newMemGlobalRepo()
	audit := &memAuditLog{}
	return &learningFixture{
		svc:      NewService(learning, global, audit, nil, cfg),
		learning: learning,
		global:   global,
		audit:    audit,
	}
}

func feedback(userID uuid.UUID, brand string, rating domain.Rating, category string) FeedbackInput {
	return FeedbackInput{
		UserID:    userID,
		BrandKey:  brand,
		BrandName: brand,
		Rating:    rating,
		Context:   domain.FeedbackContext{Category: category},
	}
}

// =============================================================================
// RecordFeedback
// =============================================================================

func TestRecordFeedback_FirstPositiveRating(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	result, err := f.svc.RecordFeedback(context.Background(), feedback(userID, "buckmason.com", domain.RatingPositive, "clothing"))
	if err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	// 1.0 ratio at confidence 0.1 blends to 1.0*0.1 + 0.5*0.9
	if math.Abs(result.UpdatedSatisfactionScore-0.55) > 1e-9 {
		t.Errorf("UpdatedSatisfactionScore = %v, want 0.55", result.UpdatedSatisfactionScore)
	}
	if math.Abs(result.ConfidenceLevel-0.1) > 1e-9 {
		t.Errorf("ConfidenceLevel = %v, want 0.1", result.ConfidenceLevel)
	}
	if result.TotalRatings != 1 {
		t.Errorf("TotalRatings = %d, want 1", result.TotalRatings)
	}

	if len(f.audit.events) != 1 {
		t.Errorf("audit events = %d, want 1", len(f.audit.events))
	}
}

func TestRecordFeedback_InvalidRating(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordFeedback(context.Background(), feedback(uuid.New(), "b.com", "meh", "clothing"))
	if err == nil {
		t.Fatal("expected validation error for unknown rating")
	}
}

func TestRecordFeedback_MissingCategoryDegradesToUnknown(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	if _, err := f.svc.RecordFeedback(context.Background(), feedback(userID, "b.com", domain.RatingPositive, "")); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	intel, _ := f.global.GetBrandIntel(context.Background(), "b.com")
	if intel.CategoryPreferences[CategoryUnknown].Total != 1 {
		t.Errorf("missing category must land in %q, got %v", CategoryUnknown, intel.CategoryPreferences)
	}
}

func TestRecordFeedback_ConfidenceGrowsWithRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var lastConfidence float64
	for i := 0; i < 12; i++ {
		result, err := f.svc.RecordFeedback(ctx, feedback(uuid.New(), "everlane.com", domain.RatingPositive, "clothing"))
		if err != nil {
			t.Fatalf("rating %d: %v", i, err)
		}
		if result.ConfidenceLevel < lastConfidence {
			t.Errorf("confidence decreased at rating %d: %v -> %v", i, lastConfidence, result.ConfidenceLevel)
		}
		if result.ConfidenceLevel > 1 {
			t.Errorf("confidence above 1 at rating %d: %v", i, result.ConfidenceLevel)
		}
		if result.TotalRatings != i+1 {
			t.Errorf("TotalRatings = %d, want %d", result.TotalRatings, i+1)
		}
		lastConfidence = result.ConfidenceLevel
	}

	if lastConfidence != 1.0 {
		t.Errorf("confidence = %v after 12 ratings, want saturation at 1.0", lastConfidence)
	}
}

func TestRecordFeedback_TunedConfidenceSaturation(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Learning.ConfidenceSaturation = 2
	svc := NewService(newMemLearningRepo(), newMemGlobalRepo(), nil, nil, cfg)
	ctx := context.Background()

	if _, err := svc.RecordFeedback(ctx, feedback(uuid.New(), "tuned.com", domain.RatingPositive, "clothing")); err != nil {
		t.Fatal(err)
	}
	result, err := svc.RecordFeedback(ctx, feedback(uuid.New(), "tuned.com", domain.RatingPositive, "clothing"))
	if err != nil {
		t.Fatal(err)
	}

	if result.ConfidenceLevel != 1.0 {
		t.Errorf("ConfidenceLevel = %v, want 1.0 at the tuned saturation of 2", result.ConfidenceLevel)
	}
	if result.UpdatedSatisfactionScore != 1.0 {
		t.Errorf("UpdatedSatisfactionScore = %v, want 1.0 at full confidence", result.UpdatedSatisfactionScore)
	}
}

func TestRecordFeedback_MixedRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 3 up, 1 down: ratio 0.75 at confidence 0.4 blends to
	// 0.75*0.4 + 0.5*0.6 = 0.6.
	for i := 0; i < 3; i++ {
		if _, err := f.svc.RecordFeedback(ctx, feedback(uuid.New(), "rei.com", domain.RatingPositive, "outdoor")); err != nil {
			t.Fatal(err)
		}
	}
	result, err := f.svc.RecordFeedback(ctx, feedback(uuid.New(), "rei.com", domain.RatingNegative, "outdoor"))
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(result.UpdatedSatisfactionScore-0.6) > 1e-9 {
		t.Errorf("UpdatedSatisfactionScore = %v, want 0.6", result.UpdatedSatisfactionScore)
	}

	record, _ := f.learning.Get(ctx, "rei.com")
	if record.PositiveRatings+record.NegativeRatings != record.TotalRatings {
		t.Error("positive + negative must equal total")
	}
}

func TestRecordFeedback_UpdatesCollaborativeState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "glossier.com", domain.RatingPositive, "beauty")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "glossier.com", domain.RatingNegative, "beauty")); err != nil {
		t.Fatal(err)
	}

	intel, _ := f.global.GetBrandIntel(ctx, "glossier.com")
	if intel.TotalFeedbackReceived != 2 {
		t.Errorf("TotalFeedbackReceived = %d, want 2", intel.TotalFeedbackReceived)
	}
	pattern := intel.UserEngagementPatterns[userID.String()]
	if pattern.TotalRatings != 2 || pattern.PositiveRatio != 0.5 {
		t.Errorf("user pattern = %+v, want 2 ratings at 0.5 ratio", pattern)
	}

	profile, _ := f.global.GetUserEngagement(ctx, userID)
	if profile.TotalRatings != 2 || profile.PositiveRatio != 0.5 {
		t.Errorf("user profile = %+v, want 2 ratings at 0.5 ratio", profile)
	}
	if profile.CategoryAffinity["beauty"].Total != 2 {
		t.Errorf("beauty affinity = %+v, want 2 events", profile.CategoryAffinity["beauty"])
	}
}
