// Package learning folds explicit user feedback into per-brand and per-user
// preference state and serves personalized brand scores.
package learning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"brandintel_server/config"
	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/pkg/apperr"
	"brandintel_server/pkg/cache"
	"brandintel_server/pkg/logger"
)

// CategoryUnknown is used when a feedback event arrives without a usable
// category. The event still counts; it just lands in the catch-all bucket.
const CategoryUnknown = "unknown"

// FeedbackInput is one incoming judgment about a brand.
type FeedbackInput struct {
	UserID    uuid.UUID
	BrandKey  string
	BrandName string
	Rating    domain.Rating
	Context   domain.FeedbackContext
}

// FeedbackResult reports the updated global satisfaction after the event.
type FeedbackResult struct {
	Success                  bool    `json:"success"`
	UpdatedSatisfactionScore float64 `json:"updated_satisfaction_score"`
	ConfidenceLevel          float64 `json:"confidence_level"`
	TotalRatings             int     `json:"total_ratings"`
}

// Service is the feedback learning engine.
type Service struct {
	learning out.BrandLearningRepository
	global   out.GlobalIntelRepository
	audit    out.FeedbackLogRepository
	cache    *cache.RedisCache
	cacheTTL time.Duration
	tuning   config.LearningConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the learning engine. audit and cache may be nil; both
// are best-effort side channels.
func NewService(learning out.BrandLearningRepository, global out.GlobalIntelRepository, audit out.FeedbackLogRepository, scoreCache *cache.RedisCache, cfg *config.Config) *Service {
	return &Service{
		learning: learning,
		global:   global,
		audit:    audit,
		cache:    scoreCache,
		cacheTTL: cfg.ScoreCacheTTL(),
		tuning:   cfg.Learning,
		log:      logger.WithField("component", "learning"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordFeedback folds one rating into the brand's learning record, the
// collaborative state, and the user's engagement profile. The primary
// learning update must succeed; the audit log and cache invalidation are
// best-effort.
func (s *Service) RecordFeedback(ctx context.Context, input FeedbackInput) (*FeedbackResult, error) {
	if !input.Rating.IsValid() {
		return nil, apperr.InvalidInput("rating", fmt.Sprintf("must be %q or %q", domain.RatingPositive, domain.RatingNegative))
	}
	if input.BrandKey == "" {
		return nil, apperr.MissingField("brand_key")
	}
	brandKey := strings.ToLower(input.BrandKey)

	category := strings.ToLower(strings.TrimSpace(input.Context.Category))
	if category == "" {
		category = CategoryUnknown
	}
	now := s.now()

	record, err := s.learning.Get(ctx, brandKey)
	if err != nil {
		return nil, apperr.DatabaseError("load learning record", err)
	}
	if record == nil {
		record = domain.NewBrandLearningRecord(brandKey, input.BrandName, input.Rating, now)
	}
	record.ApplyRating(input.Rating, s.tuning.ConfidenceSaturation, now)
	record.LastFeedback = &domain.FeedbackSnapshot{
		UserID:     input.UserID,
		Rating:     input.Rating,
		Category:   category,
		RecordedAt: now,
	}
	if err := s.learning.Put(ctx, record); err != nil {
		return nil, apperr.DatabaseError("store learning record", err)
	}

	if err := s.updateCollaborativeState(ctx, input.UserID, brandKey, input.Rating, category, now); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, input, brandKey, category, now)
	s.invalidateScores(ctx, brandKey)

	return &FeedbackResult{
		Success:                  true,
		UpdatedSatisfactionScore: record.UserSatisfactionScore,
		ConfidenceLevel:          record.ConfidenceLevel,
		TotalRatings:             record.TotalRatings,
	}, nil
}

func (s *Service) updateCollaborativeState(ctx context.Context, userID uuid.UUID, brandKey string, rating domain.Rating, category string, now time.Time) error {
	intel, err := s.global.GetBrandIntel(ctx, brandKey)
	if err != nil {
		return apperr.DatabaseError("load brand intel", err)
	}
	if intel == nil {
		intel = domain.NewGlobalBrandIntelligenceRecord(brandKey, now)
	}
	intel.ApplyFeedback(userID, rating, category, now)
	if err := s.global.PutBrandIntel(ctx, intel); err != nil {
		return apperr.DatabaseError("store brand intel", err)
	}

	profile, err := s.global.GetUserEngagement(ctx, userID)
	if err != nil {
		return apperr.DatabaseError("load user engagement", err)
	}
	if profile == nil {
		profile = domain.NewUserEngagementRecord(userID, now)
	}
	profile.ApplyFeedback(rating, category, now)
	if err := s.global.PutUserEngagement(ctx, profile); err != nil {
		return apperr.DatabaseError("store user engagement", err)
	}
	return nil
}

// appendAudit writes the append-only trail. A failed append is logged and
// swallowed; losing an audit row must not lose the learning update.
func (s *Service) appendAudit(ctx context.Context, input FeedbackInput, brandKey, category string, now time.Time) {
	if s.audit == nil {
		return
	}
	event := &domain.FeedbackEvent{
		UserID:    input.UserID,
		BrandKey:  brandKey,
		BrandName: input.BrandName,
		Rating:    input.Rating,
		Context: domain.FeedbackContext{
			Subject:     input.Context.Subject,
			Category:    category,
			SignalScore: input.Context.SignalScore,
		},
		RecordedAt: now,
	}
	if err := s.audit.Append(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to append feedback audit event for %s", brandKey)
	}
}

// invalidateScores drops every user's cached personalized score for the
// brand, since collaborative state shifted for all of them.
func (s *Service) invalidateScores(ctx context.Context, brandKey string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, scoreCachePattern(brandKey)); err != nil {
		s.log.WithError(err).Warn("failed to invalidate score cache for %s", brandKey)
	}
}

func scoreCacheKey(userID uuid.UUID, brandKey, category string) string {
	if category == "" {
		category = CategoryUnknown
	}
	return fmt.Sprintf("pscore:%s:%s:%s", brandKey, userID, category)
}

func scoreCachePattern(brandKey string) string {
	return fmt.Sprintf("pscore:%s:*", brandKey)
}
