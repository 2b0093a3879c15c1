package domain

import "strings"

// ShoppingIntent is the structured output of the intent-parsing collaborator.
// The engine consumes it as-is; free-text query parsing happens upstream.
type ShoppingIntent struct {
	Category  string   `json:"category"`
	Keywords  []string `json:"keywords,omitempty"`
	Recipient string   `json:"recipient,omitempty"`
	IsGift    bool     `json:"is_gift"`
}

// BrandCandidate is one brand entering the recommendation scorer, carrying
// the learned loyalty score and the inferred email quality score.
type BrandCandidate struct {
	Name         string   `json:"name"`
	Domain       string   `json:"domain,omitempty"`
	Categories   []string `json:"categories"`
	TrustSignals []string `json:"trust_signals,omitempty"`
	GiftFriendly bool     `json:"gift_friendly"`

	LoyaltyScore      float64 `json:"loyalty_score"`       // proxy for learned satisfaction, [0,1]
	EmailQualityScore float64 `json:"email_quality_score"` // [0.1, 0.95]
}

// MatchesCategory reports an exact (case-insensitive) category match.
func (c *BrandCandidate) MatchesCategory(category string) bool {
	if category == "" {
		return false
	}
	for _, own := range c.Categories {
		if strings.EqualFold(own, category) {
			return true
		}
	}
	return false
}

// StrongestTrustSignal returns the first trust signal, the single strongest
// one by convention of the seed catalog ordering.
func (c *BrandCandidate) StrongestTrustSignal() string {
	if len(c.TrustSignals) == 0 {
		return ""
	}
	return c.TrustSignals[0]
}

// Recommendation is the scorer's winning pick with its deterministic
// explanation.
type Recommendation struct {
	Winner     *BrandCandidate `json:"winner"`
	TotalScore float64         `json:"total_score"`
	Reasoning  string          `json:"reasoning"`

	CategoryScore float64 `json:"category_score"`
	GiftBonus     float64 `json:"gift_bonus"`
}
