package domain

import "time"

// SeedBrand is one entry of the immutable cold-start catalog: the prior used
// for brands with no observed signals yet.
type SeedBrand struct {
	BrandKey     string   `json:"brand_key" bson:"brand_key"`
	Name         string   `json:"name" bson:"name"`
	Domain       string   `json:"domain" bson:"domain"`
	Categories   []string `json:"categories" bson:"categories"`
	TrustSignals []string `json:"trust_signals,omitempty" bson:"trust_signals,omitempty"`
	GiftFriendly bool     `json:"gift_friendly" bson:"gift_friendly"`
	IsDTC        bool     `json:"is_dtc" bson:"is_dtc"`

	// Conservative priors applied before any real signal or feedback exists.
	LoyaltyPrior float64 `json:"loyalty_prior" bson:"loyalty_prior"`
	QualityPrior float64 `json:"quality_prior" bson:"quality_prior"`
}

// SeedCatalog is a versioned, immutable seed dataset loaded once at startup
// into the persistent store. It is never mutated in place; a new version
// replaces the old one wholesale.
type SeedCatalog struct {
	Version  string      `json:"version" bson:"version"`
	LoadedAt time.Time   `json:"loaded_at" bson:"loaded_at"`
	Brands   []SeedBrand `json:"brands" bson:"brands"`
}

// SeedCatalogVersion identifies the embedded dataset below. Bump when the
// entries change.
const SeedCatalogVersion = "2026-08-1"

// DefaultSeedCatalog returns the embedded cold-start catalog.
func DefaultSeedCatalog() *SeedCatalog {
	return &SeedCatalog{
		Version: SeedCatalogVersion,
		Brands: []SeedBrand{
			{BrandKey: "buckmason.com", Name: "Buck Mason", Domain: "buckmason.com", Categories: []string{"clothing", "menswear"}, TrustSignals: []string{"made in USA", "frequent repeat buyers"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.6, QualityPrior: 0.5},
			{BrandKey: "everlane.com", Name: "Everlane", Domain: "everlane.com", Categories: []string{"clothing", "basics"}, TrustSignals: []string{"transparent pricing"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.55, QualityPrior: 0.5},
			{BrandKey: "allbirds.com", Name: "Allbirds", Domain: "allbirds.com", Categories: []string{"shoes", "footwear"}, TrustSignals: []string{"sustainable materials"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.55, QualityPrior: 0.5},
			{BrandKey: "brooklinen.com", Name: "Brooklinen", Domain: "brooklinen.com", Categories: []string{"home", "bedding"}, TrustSignals: []string{"lifetime warranty"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.55, QualityPrior: 0.5},
			{BrandKey: "glossier.com", Name: "Glossier", Domain: "glossier.com", Categories: []string{"beauty", "skincare"}, TrustSignals: []string{"community favorite"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.55, QualityPrior: 0.5},
			{BrandKey: "patagonia.com", Name: "Patagonia", Domain: "patagonia.com", Categories: []string{"outdoor", "clothing"}, TrustSignals: []string{"ironclad guarantee"}, GiftFriendly: true, IsDTC: false, LoyaltyPrior: 0.6, QualityPrior: 0.55},
			{BrandKey: "rei.com", Name: "REI", Domain: "rei.com", Categories: []string{"outdoor", "sports"}, TrustSignals: []string{"co-op member owned"}, GiftFriendly: true, IsDTC: false, LoyaltyPrior: 0.55, QualityPrior: 0.5},
			{BrandKey: "leatherology.com", Name: "Leatherology", Domain: "leatherology.com", Categories: []string{"accessories", "gifts"}, TrustSignals: []string{"free monogramming"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.5, QualityPrior: 0.45},
			{BrandKey: "bombas.com", Name: "Bombas", Domain: "bombas.com", Categories: []string{"clothing", "socks"}, TrustSignals: []string{"one purchased one donated"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.5, QualityPrior: 0.45},
			{BrandKey: "ourplace.com", Name: "Our Place", Domain: "ourplace.com", Categories: []string{"home", "kitchen"}, TrustSignals: []string{"cult favorite cookware"}, GiftFriendly: true, IsDTC: true, LoyaltyPrior: 0.5, QualityPrior: 0.45},
		},
	}
}

// ToCandidate converts a seed entry to a recommendation candidate using its
// priors.
func (b *SeedBrand) ToCandidate() *BrandCandidate {
	quality := b.QualityPrior
	if quality < QualityScoreMin {
		quality = QualityScoreMin
	}
	return &BrandCandidate{
		Name:              b.Name,
		Domain:            b.Domain,
		Categories:        b.Categories,
		TrustSignals:      b.TrustSignals,
		GiftFriendly:      b.GiftFriendly,
		LoyaltyScore:      b.LoyaltyPrior,
		EmailQualityScore: quality,
	}
}
