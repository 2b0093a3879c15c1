package learning

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"brandintel_server/core/domain"
)

func TestGetPersonalizedScore_NoDataIsNeutral(t *testing.T) {
	f := newFixture(t)

	score, err := f.svc.GetPersonalizedScore(context.Background(), uuid.New(), "unrated.com", "")
	if err != nil {
		t.Fatalf("GetPersonalizedScore: %v", err)
	}

	if score.PersonalizedScore != domain.SatisfactionNeutral {
		t.Errorf("PersonalizedScore = %v, want neutral 0.5", score.PersonalizedScore)
	}
	if score.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 with no feedback", score.Confidence)
	}
	if len(score.ExplanationFactors) == 0 {
		t.Error("expected an explanation even with no data")
	}
}

func TestGetPersonalizedScore_OwnHistoryBoost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "bombas.com", domain.RatingPositive, "clothing")); err != nil {
		t.Fatal(err)
	}

	mine, err := f.svc.GetPersonalizedScore(ctx, userID, "bombas.com", "")
	if err != nil {
		t.Fatal(err)
	}
	other, err := f.svc.GetPersonalizedScore(ctx, uuid.New(), "bombas.com", "")
	if err != nil {
		t.Fatal(err)
	}

	// Global satisfaction after one up-rating is 0.55; the rater's own
	// positive history multiplies it by 1.25.
	if math.Abs(other.PersonalizedScore-0.55) > 1e-9 {
		t.Errorf("stranger score = %v, want 0.55", other.PersonalizedScore)
	}
	if math.Abs(mine.PersonalizedScore-0.55*1.25) > 1e-9 {
		t.Errorf("rater score = %v, want %v", mine.PersonalizedScore, 0.55*1.25)
	}
}

func TestGetPersonalizedScore_OwnHistoryPenalty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "meh.com", domain.RatingNegative, "clothing")); err != nil {
		t.Fatal(err)
	}

	score, err := f.svc.GetPersonalizedScore(ctx, userID, "meh.com", "")
	if err != nil {
		t.Fatal(err)
	}

	// Global satisfaction 0.45, penalized by 0.75 for the user's own
	// negative history.
	if math.Abs(score.PersonalizedScore-0.45*0.75) > 1e-9 {
		t.Errorf("score = %v, want %v", score.PersonalizedScore, 0.45*0.75)
	}
}

func TestGetPersonalizedScore_CategoryAffinityScaling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// Build a perfect beauty affinity through other brands.
	for _, brand := range []string{"a.com", "b.com", "c.com"} {
		if _, err := f.svc.RecordFeedback(ctx, feedback(userID, brand, domain.RatingPositive, "beauty")); err != nil {
			t.Fatal(err)
		}
	}

	withCategory, err := f.svc.GetPersonalizedScore(ctx, userID, "unrated-beauty.com", "beauty")
	if err != nil {
		t.Fatal(err)
	}
	without, err := f.svc.GetPersonalizedScore(ctx, userID, "unrated-beauty.com", "")
	if err != nil {
		t.Fatal(err)
	}

	// Perfect affinity scales the neutral base by 0.5+1.0.
	if math.Abs(withCategory.PersonalizedScore-0.75) > 1e-9 {
		t.Errorf("category score = %v, want 0.75", withCategory.PersonalizedScore)
	}
	if without.PersonalizedScore != domain.SatisfactionNeutral {
		t.Errorf("no-category score = %v, want neutral", without.PersonalizedScore)
	}
}

func TestGetPersonalizedScore_SimilarUserBlend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	similar := uuid.New()

	// The similar user loves the brand; both users have all-positive
	// profiles with enough history to qualify.
	for i := 0; i < 5; i++ {
		if _, err := f.svc.RecordFeedback(ctx, feedback(similar, "patagonia.com", domain.RatingPositive, "outdoor")); err != nil {
			t.Fatal(err)
		}
		if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "other.com", domain.RatingPositive, "outdoor")); err != nil {
			t.Fatal(err)
		}
	}

	score, err := f.svc.GetPersonalizedScore(ctx, userID, "patagonia.com", "")
	if err != nil {
		t.Fatal(err)
	}

	// Base 0.75 (5 up-ratings at confidence 0.5), blended 70/30 with the
	// similar user's 1.0 ratio on this brand.
	want := 0.7*0.75 + 0.3*1.0
	if math.Abs(score.PersonalizedScore-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score.PersonalizedScore, want)
	}
}

func TestGetPersonalizedScore_ClampedToUnitRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// Saturate the brand with positive feedback from this user and pile on
	// category affinity so the multipliers overflow 1.0 before clamping.
	for i := 0; i < 12; i++ {
		if _, err := f.svc.RecordFeedback(ctx, feedback(userID, "ourplace.com", domain.RatingPositive, "home")); err != nil {
			t.Fatal(err)
		}
	}

	score, err := f.svc.GetPersonalizedScore(ctx, userID, "ourplace.com", "home")
	if err != nil {
		t.Fatal(err)
	}

	if score.PersonalizedScore > 1.0 || score.PersonalizedScore < 0.0 {
		t.Errorf("score = %v, want clamped to [0,1]", score.PersonalizedScore)
	}
	if score.PersonalizedScore != 1.0 {
		t.Errorf("score = %v, want 1.0 after saturation", score.PersonalizedScore)
	}
	if score.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 after saturation", score.Confidence)
	}
}

func TestGetPersonalizedScore_MissingBrandKey(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.GetPersonalizedScore(context.Background(), uuid.New(), "", ""); err == nil {
		t.Fatal("expected error for missing brand key")
	}
}
