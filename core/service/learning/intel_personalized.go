package learning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"brandintel_server/core/domain"
	"brandintel_server/pkg/apperr"
)

// PersonalizedScore is a user-specific prediction of brand fit.
type PersonalizedScore struct {
	BrandKey           string   `json:"brand_key"`
	PersonalizedScore  float64  `json:"personalized_score"`
	Confidence         float64  `json:"confidence"`
	ExplanationFactors []string `json:"explanation_factors"`
}

// maxSimilarUsers bounds the similar-user lookup per score request.
const maxSimilarUsers = 50

// GetPersonalizedScore predicts how well a brand fits one user, blending the
// global satisfaction score with the user's own history, their category
// affinity, and the judgment of similarly-behaving users.
//
// Every stage is optional: with no data at all the result is the neutral
// 0.5 with zero confidence. Results are cached per (brand, user, category).
func (s *Service) GetPersonalizedScore(ctx context.Context, userID uuid.UUID, brandKey, category string) (*PersonalizedScore, error) {
	if brandKey == "" {
		return nil, apperr.MissingField("brand_key")
	}
	brandKey = strings.ToLower(brandKey)
	category = strings.ToLower(strings.TrimSpace(category))

	if s.cache != nil {
		var cached PersonalizedScore
		if hit, err := s.cache.GetJSON(ctx, scoreCacheKey(userID, brandKey, category), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	record, err := s.learning.Get(ctx, brandKey)
	if err != nil {
		return nil, apperr.DatabaseError("load learning record", err)
	}
	intel, err := s.global.GetBrandIntel(ctx, brandKey)
	if err != nil {
		return nil, apperr.DatabaseError("load brand intel", err)
	}
	profile, err := s.global.GetUserEngagement(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("load user engagement", err)
	}

	score := &PersonalizedScore{BrandKey: brandKey}

	// Base: the global confidence-weighted satisfaction, neutral when the
	// brand has never been rated.
	base := domain.SatisfactionNeutral
	if record != nil {
		base = record.UserSatisfactionScore
		score.Confidence = record.ConfidenceLevel
		score.ExplanationFactors = append(score.ExplanationFactors,
			fmt.Sprintf("global satisfaction %.2f from %d ratings", base, record.TotalRatings))
	} else {
		score.ExplanationFactors = append(score.ExplanationFactors, "no global feedback yet, starting neutral")
	}
	value := base

	// Personal history with this brand boosts or penalizes.
	if intel != nil {
		if pattern, ok := intel.UserEngagementPatterns[userID.String()]; ok && pattern.TotalRatings > 0 {
			switch {
			case pattern.PositiveRatio > domain.SatisfactionNeutral:
				value *= s.tuning.PositiveBoost
				score.ExplanationFactors = append(score.ExplanationFactors, "you rated this brand positively before")
			case pattern.PositiveRatio < domain.SatisfactionNeutral:
				value *= s.tuning.NegativePenalty
				score.ExplanationFactors = append(score.ExplanationFactors, "you rated this brand negatively before")
			}
		}
	}

	// Category affinity scales the score around 1.0: a neutral 0.5 ratio
	// leaves it untouched, strong affinity scales up to 1.5x.
	if category != "" && profile != nil {
		if stats, ok := profile.CategoryAffinity[category]; ok && stats.Total > 0 {
			ratio := stats.PositiveRatio()
			value *= domain.SatisfactionNeutral + ratio
			score.ExplanationFactors = append(score.ExplanationFactors,
				fmt.Sprintf("your %s affinity is %.2f", category, ratio))
		}
	}

	// Similar users: blend toward the average judgment of users whose
	// overall behavior resembles this user's.
	if similar := s.similarUserScore(ctx, userID, profile, intel); similar >= 0 {
		blend := s.tuning.SimilarUserBlend
		value = (1-blend)*value + blend*similar
		score.ExplanationFactors = append(score.ExplanationFactors,
			fmt.Sprintf("similar shoppers score this brand %.2f", similar))
	}

	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	score.PersonalizedScore = value

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, scoreCacheKey(userID, brandKey, category), score, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache personalized score for %s", brandKey)
		}
	}
	return score, nil
}

// similarUserScore averages the brand judgment of users behaviorally close
// to this one. Returns -1 when no similar user has rated the brand; the
// lookup is best-effort and degrades silently on store errors.
func (s *Service) similarUserScore(ctx context.Context, userID uuid.UUID, profile *domain.UserEngagementRecord, intel *domain.GlobalBrandIntelligenceRecord) float64 {
	if profile == nil || intel == nil || profile.TotalRatings < s.tuning.SimilarUserMinRating {
		return -1
	}

	similar, err := s.global.ListSimilarEngagement(ctx, userID, profile.PositiveRatio,
		s.tuning.SimilarUserTolerance, s.tuning.SimilarUserMinRating, maxSimilarUsers)
	if err != nil {
		s.log.WithError(err).Warn("similar-user lookup failed")
		return -1
	}

	var sum float64
	var count int
	for _, other := range similar {
		pattern, ok := intel.UserEngagementPatterns[other.UserID.String()]
		if !ok || pattern.TotalRatings == 0 {
			continue
		}
		sum += pattern.PositiveRatio
		count++
	}
	if count == 0 {
		return -1
	}
	return sum / float64(count)
}
