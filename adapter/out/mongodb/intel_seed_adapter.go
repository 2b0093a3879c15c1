package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/pkg/logger"
)

// =============================================================================
// MongoDB Seed Catalog Adapter
// =============================================================================

const collectionSeedCatalog = "seed_catalog"

// SeedCatalogAdapter implements out.SeedCatalogRepository using MongoDB. The
// catalog is versioned: each version is one immutable document, and reads
// always take the latest version.
type SeedCatalogAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewSeedCatalogAdapter creates a new MongoDB seed catalog adapter.
func NewSeedCatalogAdapter(db *mongo.Database) *SeedCatalogAdapter {
	return &SeedCatalogAdapter{
		db:         db,
		collection: db.Collection(collectionSeedCatalog),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *SeedCatalogAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "version", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetCatalog returns the newest catalog version, (nil, nil) when none is
// loaded yet.
func (a *SeedCatalogAdapter) GetCatalog(ctx context.Context) (*domain.SeedCatalog, error) {
	var catalog domain.SeedCatalog
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	err := a.collection.FindOne(ctx, bson.M{}, opts).Decode(&catalog)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get seed catalog: %w", err)
	}
	return &catalog, nil
}

// PutCatalog stores one catalog version. Re-putting an existing version
// overwrites it with identical content, never mutates it in place.
func (a *SeedCatalogAdapter) PutCatalog(ctx context.Context, catalog *domain.SeedCatalog) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"version": catalog.Version}

	if _, err := a.collection.ReplaceOne(ctx, filter, catalog, opts); err != nil {
		return fmt.Errorf("failed to save seed catalog: %w", err)
	}
	return nil
}

// GetSeedBrand looks one brand up in the newest catalog, (nil, nil) when the
// brand is not seeded.
func (a *SeedCatalogAdapter) GetSeedBrand(ctx context.Context, brandKey string) (*domain.SeedBrand, error) {
	catalog, err := a.GetCatalog(ctx)
	if err != nil || catalog == nil {
		return nil, err
	}
	for i := range catalog.Brands {
		if catalog.Brands[i].BrandKey == brandKey {
			return &catalog.Brands[i], nil
		}
	}
	return nil, nil
}

var _ out.SeedCatalogRepository = (*SeedCatalogAdapter)(nil)

// LoadDefaultCatalog writes the embedded catalog version at startup unless
// the store already holds it.
func LoadDefaultCatalog(ctx context.Context, repo out.SeedCatalogRepository) error {
	existing, err := repo.GetCatalog(ctx)
	if err != nil {
		return err
	}
	if existing != nil && existing.Version >= domain.SeedCatalogVersion {
		return nil
	}

	catalog := domain.DefaultSeedCatalog()
	catalog.LoadedAt = time.Now().UTC()
	if err := repo.PutCatalog(ctx, catalog); err != nil {
		return err
	}

	logger.Info("loaded seed catalog version %s with %d brands", catalog.Version, len(catalog.Brands))
	return nil
}
