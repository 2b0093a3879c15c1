package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
)

// =============================================================================
// MongoDB Brand Signal Adapter
// =============================================================================

const collectionBrandSignals = "brand_signals"

// BrandSignalAdapter implements out.BrandSignalRepository using MongoDB.
type BrandSignalAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewBrandSignalAdapter creates a new MongoDB brand signal adapter.
func NewBrandSignalAdapter(db *mongo.Database) *BrandSignalAdapter {
	return &BrandSignalAdapter{
		db:         db,
		collection: db.Collection(collectionBrandSignals),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *BrandSignalAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "brand_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "email_quality_score", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Get retrieves one brand record, (nil, nil) when it does not exist.
func (a *BrandSignalAdapter) Get(ctx context.Context, userID, brandKey string) (*domain.BrandSignalRecord, error) {
	var record domain.BrandSignalRecord
	filter := bson.M{"user_id": userID, "brand_key": brandKey}

	err := a.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brand signal record: %w", err)
	}

	return &record, nil
}

// Put upserts one brand record.
func (a *BrandSignalAdapter) Put(ctx context.Context, record *domain.BrandSignalRecord) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"user_id": record.UserID, "brand_key": record.BrandKey}

	if _, err := a.collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		return fmt.Errorf("failed to save brand signal record: %w", err)
	}

	return nil
}

// ListByUser returns a user's brand records, strongest quality first.
func (a *BrandSignalAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.BrandSignalRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "email_quality_score", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand signal records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.BrandSignalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode brand signal records: %w", err)
	}

	return records, nil
}

var _ out.BrandSignalRepository = (*BrandSignalAdapter)(nil)
