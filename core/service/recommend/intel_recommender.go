// Package recommend ranks candidate brands against a parsed shopping intent.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"brandintel_server/config"
	"brandintel_server/core/domain"
	"brandintel_server/pkg/apperr"
	"brandintel_server/pkg/logger"
)

// Category score bounds for partial keyword overlap. Partial matches never
// outrank an exact category match.
const (
	keywordMatchWeight = 0.3
	partialMatchCap    = 0.8
	reasoningSeparator = ". "
)

// Service is the recommendation scorer.
type Service struct {
	weights config.RecommendWeights
	log     *logger.Logger
}

// NewService builds the scorer.
func NewService(cfg *config.Config) *Service {
	return &Service{
		weights: cfg.Recommend,
		log:     logger.WithField("component", "recommender"),
	}
}

// scored pairs a candidate with its computed parts.
type scored struct {
	candidate     *domain.BrandCandidate
	total         float64
	categoryScore float64
	giftBonus     float64
}

// RankAndRecommend scores every candidate and returns the winner with
// deterministic reasoning. Ties keep the first-seen candidate, so the same
// input list always yields the same pick.
func (s *Service) RankAndRecommend(ctx context.Context, intent *domain.ShoppingIntent, candidates []*domain.BrandCandidate) (*domain.Recommendation, error) {
	if intent == nil {
		return nil, apperr.MissingField("intent")
	}
	if len(candidates) == 0 {
		return nil, apperr.BadRequest("no candidate brands to rank")
	}

	var best scored
	for _, candidate := range candidates {
		current := s.score(intent, candidate)
		if best.candidate == nil || current.total > best.total {
			best = current
		}
	}

	s.log.Debug("recommending %s at %.3f over %d candidates",
		best.candidate.Name, best.total, len(candidates))

	return &domain.Recommendation{
		Winner:        best.candidate,
		TotalScore:    best.total,
		Reasoning:     s.reasoning(intent, best),
		CategoryScore: best.categoryScore,
		GiftBonus:     best.giftBonus,
	}, nil
}

func (s *Service) score(intent *domain.ShoppingIntent, candidate *domain.BrandCandidate) scored {
	result := scored{candidate: candidate}

	result.categoryScore = categoryScore(intent, candidate)
	result.total = result.categoryScore +
		s.weights.Loyalty*candidate.LoyaltyScore +
		s.weights.EmailQuality*candidate.EmailQualityScore

	if intent.IsGift && candidate.GiftFriendly {
		result.giftBonus = s.weights.GiftBonus
		result.total += result.giftBonus
	}
	return result
}

// categoryScore is 1.0 on an exact category match, otherwise a capped
// fraction of the keyword overlap against the brand's categories.
func categoryScore(intent *domain.ShoppingIntent, candidate *domain.BrandCandidate) float64 {
	if candidate.MatchesCategory(intent.Category) {
		return 1.0
	}

	matches := 0
	for _, keyword := range intent.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		for _, category := range candidate.Categories {
			if strings.Contains(strings.ToLower(category), keyword) {
				matches++
				break
			}
		}
	}

	score := keywordMatchWeight * float64(matches)
	if score > partialMatchCap {
		return partialMatchCap
	}
	return score
}

// reasoning assembles the winner's explanation from fixed clauses. No model
// call: the same winner and intent always produce the same text.
func (s *Service) reasoning(intent *domain.ShoppingIntent, best scored) string {
	candidate := best.candidate
	var clauses []string

	if candidate.LoyaltyScore > 0.8 {
		clauses = append(clauses, fmt.Sprintf("You engage with %s emails consistently", candidate.Name))
	}
	if candidate.EmailQualityScore > 0.85 {
		clauses = append(clauses, "Their emails are high quality and relevant")
	}
	if best.categoryScore >= 1.0 {
		clauses = append(clauses, fmt.Sprintf("They are a strong match for %s", intent.Category))
	}
	if best.giftBonus > 0 {
		clauses = append(clauses, "They are well suited for gifting")
	}
	if trust := candidate.StrongestTrustSignal(); trust != "" {
		clauses = append(clauses, trust)
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("%s is a quality brand with an overall score of %.2f", candidate.Name, best.total)
	}
	return strings.Join(clauses, reasoningSeparator)
}
