package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a binary thumbs-up / thumbs-down judgment.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
)

// IsValid reports whether the rating is one of the two binary values.
func (r Rating) IsValid() bool {
	return r == RatingPositive || r == RatingNegative
}

// ConfidenceSaturation is the default rating count at which confidence
// reaches 1.0, used when no tuned value is supplied.
const ConfidenceSaturation = 10

// Initial satisfaction seeds for a brand that receives feedback before any
// signal was ever observed. An explicit human rating is a stronger prior than
// "no data", so the seed leans toward the rating instead of neutral 0.5.
const (
	SatisfactionSeedPositive = 0.75
	SatisfactionSeedNegative = 0.25
	SatisfactionNeutral      = 0.5
)

// FeedbackContext carries the only context allowed to travel with a feedback
// event. Full email bodies and snippets must never appear here.
type FeedbackContext struct {
	Subject     string  `json:"subject,omitempty" bson:"subject,omitempty"`
	Category    string  `json:"category,omitempty" bson:"category,omitempty"`
	SignalScore float64 `json:"signal_score,omitempty" bson:"signal_score,omitempty"`
}

// FeedbackEvent is one explicit user judgment about a brand. Append-only;
// never mutated after creation.
type FeedbackEvent struct {
	ID         int64           `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	BrandKey   string          `json:"brand_key" db:"brand_key"`
	BrandName  string          `json:"brand_name" db:"brand_name"`
	Rating     Rating          `json:"rating" db:"rating"`
	Context    FeedbackContext `json:"context" db:"-"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}

// BrandLearningRecord is the global, cross-user satisfaction aggregate for a
// single brand. One record per brand regardless of which user rated it.
type BrandLearningRecord struct {
	BrandKey  string `json:"brand_key" bson:"brand_key"`
	BrandName string `json:"brand_name" bson:"brand_name"`

	PositiveRatings int `json:"positive_ratings" bson:"positive_ratings"`
	NegativeRatings int `json:"negative_ratings" bson:"negative_ratings"`
	TotalRatings    int `json:"total_ratings" bson:"total_ratings"`

	// Confidence-weighted satisfaction in [0,1]. Blended toward the neutral
	// 0.5 prior while evidence is thin.
	UserSatisfactionScore float64 `json:"user_satisfaction_score" bson:"user_satisfaction_score"`
	ConfidenceLevel       float64 `json:"confidence_level" bson:"confidence_level"`

	LastFeedback *FeedbackSnapshot `json:"last_feedback,omitempty" bson:"last_feedback,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// FeedbackSnapshot is the most recent feedback event, denormalized onto the
// learning record for display.
type FeedbackSnapshot struct {
	UserID     uuid.UUID `json:"user_id" bson:"user_id"`
	Rating     Rating    `json:"rating" bson:"rating"`
	Category   string    `json:"category,omitempty" bson:"category,omitempty"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}

// NewBrandLearningRecord seeds a fresh learning record from the first
// feedback event's rating.
func NewBrandLearningRecord(brandKey, brandName string, firstRating Rating, now time.Time) *BrandLearningRecord {
	seed := SatisfactionSeedPositive
	if firstRating == RatingNegative {
		seed = SatisfactionSeedNegative
	}
	return &BrandLearningRecord{
		BrandKey:              brandKey,
		BrandName:             brandName,
		UserSatisfactionScore: seed,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// ApplyRating folds one rating into the record and recomputes the
// confidence-weighted satisfaction score. saturation is the rating count at
// which confidence reaches 1.0; non-positive values fall back to
// ConfidenceSaturation.
func (r *BrandLearningRecord) ApplyRating(rating Rating, saturation int, now time.Time) {
	if saturation <= 0 {
		saturation = ConfidenceSaturation
	}
	if rating == RatingPositive {
		r.PositiveRatings++
	} else {
		r.NegativeRatings++
	}
	r.TotalRatings = r.PositiveRatings + r.NegativeRatings

	r.ConfidenceLevel = float64(r.TotalRatings) / float64(saturation)
	if r.ConfidenceLevel > 1 {
		r.ConfidenceLevel = 1
	}

	baseRatio := float64(r.PositiveRatings) / float64(r.TotalRatings)
	r.UserSatisfactionScore = baseRatio*r.ConfidenceLevel + SatisfactionNeutral*(1-r.ConfidenceLevel)
	r.UpdatedAt = now
}

// CategoryStats counts ratings inside one email category.
type CategoryStats struct {
	Positive int `json:"positive" bson:"positive"`
	Negative int `json:"negative" bson:"negative"`
	Total    int `json:"total" bson:"total"`
}

// PositiveRatio returns the positive share, neutral when empty.
func (s CategoryStats) PositiveRatio() float64 {
	if s.Total == 0 {
		return SatisfactionNeutral
	}
	return float64(s.Positive) / float64(s.Total)
}

// UserBrandStats tracks one user's rating history against one brand, stored
// inside the brand's global intelligence record.
type UserBrandStats struct {
	TotalRatings  int       `json:"total_ratings" bson:"total_ratings"`
	PositiveRatio float64   `json:"positive_ratio" bson:"positive_ratio"`
	LastActive    time.Time `json:"last_active" bson:"last_active"`
}

// GlobalBrandIntelligenceRecord is the per-brand collaborative-filtering
// state: which categories the brand wins in and which users engage with it.
// Explicit records keyed by brand, no ambient process-wide state.
type GlobalBrandIntelligenceRecord struct {
	BrandKey string `json:"brand_key" bson:"brand_key"`

	CategoryPreferences    map[string]CategoryStats  `json:"category_preferences" bson:"category_preferences"`
	UserEngagementPatterns map[string]UserBrandStats `json:"user_engagement_patterns" bson:"user_engagement_patterns"`

	TotalFeedbackReceived int `json:"total_feedback_received" bson:"total_feedback_received"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewGlobalBrandIntelligenceRecord creates an empty collaborative record.
func NewGlobalBrandIntelligenceRecord(brandKey string, now time.Time) *GlobalBrandIntelligenceRecord {
	return &GlobalBrandIntelligenceRecord{
		BrandKey:               brandKey,
		CategoryPreferences:    make(map[string]CategoryStats),
		UserEngagementPatterns: make(map[string]UserBrandStats),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// ApplyFeedback folds one feedback event into the collaborative state.
func (r *GlobalBrandIntelligenceRecord) ApplyFeedback(userID uuid.UUID, rating Rating, category string, now time.Time) {
	if r.CategoryPreferences == nil {
		r.CategoryPreferences = make(map[string]CategoryStats)
	}
	if r.UserEngagementPatterns == nil {
		r.UserEngagementPatterns = make(map[string]UserBrandStats)
	}

	stats := r.CategoryPreferences[category]
	if rating == RatingPositive {
		stats.Positive++
	} else {
		stats.Negative++
	}
	stats.Total = stats.Positive + stats.Negative
	r.CategoryPreferences[category] = stats

	key := userID.String()
	pattern := r.UserEngagementPatterns[key]
	previousPositive := pattern.PositiveRatio * float64(pattern.TotalRatings)
	pattern.TotalRatings++
	if rating == RatingPositive {
		previousPositive++
	}
	pattern.PositiveRatio = previousPositive / float64(pattern.TotalRatings)
	pattern.LastActive = now
	r.UserEngagementPatterns[key] = pattern

	r.TotalFeedbackReceived++
	r.UpdatedAt = now
}

// UserEngagementRecord is one user's cross-brand rating profile: overall
// positive ratio for similar-user matching plus per-category affinity.
type UserEngagementRecord struct {
	UserID uuid.UUID `json:"user_id" bson:"user_id"`

	TotalRatings    int     `json:"total_ratings" bson:"total_ratings"`
	PositiveRatings int     `json:"positive_ratings" bson:"positive_ratings"`
	PositiveRatio   float64 `json:"positive_ratio" bson:"positive_ratio"`

	CategoryAffinity map[string]CategoryStats `json:"category_affinity" bson:"category_affinity"`

	LastActive time.Time `json:"last_active" bson:"last_active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// NewUserEngagementRecord creates an empty engagement profile.
func NewUserEngagementRecord(userID uuid.UUID, now time.Time) *UserEngagementRecord {
	return &UserEngagementRecord{
		UserID:           userID,
		CategoryAffinity: make(map[string]CategoryStats),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ApplyFeedback folds one rating into the user's profile.
func (r *UserEngagementRecord) ApplyFeedback(rating Rating, category string, now time.Time) {
	if r.CategoryAffinity == nil {
		r.CategoryAffinity = make(map[string]CategoryStats)
	}

	r.TotalRatings++
	if rating == RatingPositive {
		r.PositiveRatings++
	}
	r.PositiveRatio = float64(r.PositiveRatings) / float64(r.TotalRatings)

	stats := r.CategoryAffinity[category]
	if rating == RatingPositive {
		stats.Positive++
	} else {
		stats.Negative++
	}
	stats.Total = stats.Positive + stats.Negative
	r.CategoryAffinity[category] = stats

	r.LastActive = now
	r.UpdatedAt = now
}

// CategoryRatio returns the user's positive ratio inside one category,
// neutral when the user has no history there.
func (r *UserEngagementRecord) CategoryRatio(category string) float64 {
	if r == nil || r.CategoryAffinity == nil {
		return SatisfactionNeutral
	}
	return r.CategoryAffinity[category].PositiveRatio()
}
