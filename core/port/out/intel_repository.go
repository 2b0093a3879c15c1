// Package out defines the outbound ports of the brand intelligence engine.
package out

import (
	"context"

	"brandintel_server/core/domain"

	"github.com/google/uuid"
)

// BrandSignalRepository is the per-user slice of the persistent brand store.
// Get returns (nil, nil) when no record exists for the brand.
type BrandSignalRepository interface {
	Get(ctx context.Context, userID, brandKey string) (*domain.BrandSignalRecord, error)
	Put(ctx context.Context, record *domain.BrandSignalRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.BrandSignalRecord, error)
}

// BrandLearningRepository holds the global per-brand satisfaction aggregates,
// keyed by brand rather than by user.
type BrandLearningRepository interface {
	Get(ctx context.Context, brandKey string) (*domain.BrandLearningRecord, error)
	Put(ctx context.Context, record *domain.BrandLearningRecord) error
}

// GlobalIntelRepository holds the collaborative-filtering state: per-brand
// cross-user structure and per-user cross-brand engagement profiles.
type GlobalIntelRepository interface {
	GetBrandIntel(ctx context.Context, brandKey string) (*domain.GlobalBrandIntelligenceRecord, error)
	PutBrandIntel(ctx context.Context, record *domain.GlobalBrandIntelligenceRecord) error

	GetUserEngagement(ctx context.Context, userID uuid.UUID) (*domain.UserEngagementRecord, error)
	PutUserEngagement(ctx context.Context, record *domain.UserEngagementRecord) error

	// ListSimilarEngagement returns profiles whose overall positive ratio is
	// within tolerance of the given ratio, excluding the user themselves and
	// anyone below minRatings.
	ListSimilarEngagement(ctx context.Context, exclude uuid.UUID, ratio, tolerance float64, minRatings, limit int) ([]*domain.UserEngagementRecord, error)
}

// SeedCatalogRepository stores the immutable, versioned cold-start catalog.
type SeedCatalogRepository interface {
	GetCatalog(ctx context.Context) (*domain.SeedCatalog, error)
	PutCatalog(ctx context.Context, catalog *domain.SeedCatalog) error
	GetSeedBrand(ctx context.Context, brandKey string) (*domain.SeedBrand, error)
}

// FeedbackLogRepository is the append-only audit log of feedback events.
type FeedbackLogRepository interface {
	Append(ctx context.Context, event *domain.FeedbackEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.FeedbackEvent, error)
}
