package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
)

// =============================================================================
// MongoDB Brand Learning Adapter
// =============================================================================

const (
	collectionBrandLearning  = "brand_learning"
	collectionBrandIntel     = "brand_intel"
	collectionUserEngagement = "user_engagement"
)

// BrandLearningAdapter implements out.BrandLearningRepository using MongoDB.
type BrandLearningAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewBrandLearningAdapter creates a new MongoDB brand learning adapter.
func NewBrandLearningAdapter(db *mongo.Database) *BrandLearningAdapter {
	return &BrandLearningAdapter{
		db:         db,
		collection: db.Collection(collectionBrandLearning),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *BrandLearningAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "brand_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// -----------------------------------------------------------------------------
// Document model: user ids are stored as strings, not driver-specific binary.
// -----------------------------------------------------------------------------

type feedbackSnapshotDocument struct {
	UserID     string        `bson:"user_id"`
	Rating     domain.Rating `bson:"rating"`
	Category   string        `bson:"category,omitempty"`
	RecordedAt time.Time     `bson:"recorded_at"`
}

type brandLearningDocument struct {
	BrandKey  string `bson:"brand_key"`
	BrandName string `bson:"brand_name"`

	PositiveRatings int `bson:"positive_ratings"`
	NegativeRatings int `bson:"negative_ratings"`
	TotalRatings    int `bson:"total_ratings"`

	UserSatisfactionScore float64 `bson:"user_satisfaction_score"`
	ConfidenceLevel       float64 `bson:"confidence_level"`

	LastFeedback *feedbackSnapshotDocument `bson:"last_feedback,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toLearningDocument(record *domain.BrandLearningRecord) *brandLearningDocument {
	doc := &brandLearningDocument{
		BrandKey:              record.BrandKey,
		BrandName:             record.BrandName,
		PositiveRatings:       record.PositiveRatings,
		NegativeRatings:       record.NegativeRatings,
		TotalRatings:          record.TotalRatings,
		UserSatisfactionScore: record.UserSatisfactionScore,
		ConfidenceLevel:       record.ConfidenceLevel,
		CreatedAt:             record.CreatedAt,
		UpdatedAt:             record.UpdatedAt,
	}
	if record.LastFeedback != nil {
		doc.LastFeedback = &feedbackSnapshotDocument{
			UserID:     record.LastFeedback.UserID.String(),
			Rating:     record.LastFeedback.Rating,
			Category:   record.LastFeedback.Category,
			RecordedAt: record.LastFeedback.RecordedAt,
		}
	}
	return doc
}

func (d *brandLearningDocument) toEntity() *domain.BrandLearningRecord {
	record := &domain.BrandLearningRecord{
		BrandKey:              d.BrandKey,
		BrandName:             d.BrandName,
		PositiveRatings:       d.PositiveRatings,
		NegativeRatings:       d.NegativeRatings,
		TotalRatings:          d.TotalRatings,
		UserSatisfactionScore: d.UserSatisfactionScore,
		ConfidenceLevel:       d.ConfidenceLevel,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	if d.LastFeedback != nil {
		userID, _ := uuid.Parse(d.LastFeedback.UserID)
		record.LastFeedback = &domain.FeedbackSnapshot{
			UserID:     userID,
			Rating:     d.LastFeedback.Rating,
			Category:   d.LastFeedback.Category,
			RecordedAt: d.LastFeedback.RecordedAt,
		}
	}
	return record
}

// Get retrieves one learning record, (nil, nil) when it does not exist.
func (a *BrandLearningAdapter) Get(ctx context.Context, brandKey string) (*domain.BrandLearningRecord, error) {
	var doc brandLearningDocument
	err := a.collection.FindOne(ctx, bson.M{"brand_key": brandKey}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get learning record: %w", err)
	}
	return doc.toEntity(), nil
}

// Put upserts one learning record.
func (a *BrandLearningAdapter) Put(ctx context.Context, record *domain.BrandLearningRecord) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"brand_key": record.BrandKey}

	if _, err := a.collection.ReplaceOne(ctx, filter, toLearningDocument(record), opts); err != nil {
		return fmt.Errorf("failed to save learning record: %w", err)
	}
	return nil
}

var _ out.BrandLearningRepository = (*BrandLearningAdapter)(nil)

// =============================================================================
// MongoDB Global Intelligence Adapter
// =============================================================================

// GlobalIntelAdapter implements out.GlobalIntelRepository using MongoDB: one
// collection for the per-brand collaborative records and one for per-user
// engagement profiles.
type GlobalIntelAdapter struct {
	db         *mongo.Database
	brands     *mongo.Collection
	engagement *mongo.Collection
}

// NewGlobalIntelAdapter creates a new MongoDB global intelligence adapter.
func NewGlobalIntelAdapter(db *mongo.Database) *GlobalIntelAdapter {
	return &GlobalIntelAdapter{
		db:         db,
		brands:     db.Collection(collectionBrandIntel),
		engagement: db.Collection(collectionUserEngagement),
	}
}

// EnsureIndexes creates necessary indexes for both collections.
func (a *GlobalIntelAdapter) EnsureIndexes(ctx context.Context) error {
	if _, err := a.brands.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "brand_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return err
	}

	_, err := a.engagement.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "positive_ratio", Value: 1}, {Key: "total_ratings", Value: 1}},
		},
	})
	return err
}

type userEngagementDocument struct {
	UserID string `bson:"user_id"`

	TotalRatings    int     `bson:"total_ratings"`
	PositiveRatings int     `bson:"positive_ratings"`
	PositiveRatio   float64 `bson:"positive_ratio"`

	CategoryAffinity map[string]domain.CategoryStats `bson:"category_affinity"`

	LastActive time.Time `bson:"last_active"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toEngagementDocument(record *domain.UserEngagementRecord) *userEngagementDocument {
	return &userEngagementDocument{
		UserID:           record.UserID.String(),
		TotalRatings:     record.TotalRatings,
		PositiveRatings:  record.PositiveRatings,
		PositiveRatio:    record.PositiveRatio,
		CategoryAffinity: record.CategoryAffinity,
		LastActive:       record.LastActive,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func (d *userEngagementDocument) toEntity() (*domain.UserEngagementRecord, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("malformed user id %q: %w", d.UserID, err)
	}
	return &domain.UserEngagementRecord{
		UserID:           userID,
		TotalRatings:     d.TotalRatings,
		PositiveRatings:  d.PositiveRatings,
		PositiveRatio:    d.PositiveRatio,
		CategoryAffinity: d.CategoryAffinity,
		LastActive:       d.LastActive,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

// GetBrandIntel retrieves one collaborative record, (nil, nil) when missing.
func (a *GlobalIntelAdapter) GetBrandIntel(ctx context.Context, brandKey string) (*domain.GlobalBrandIntelligenceRecord, error) {
	var record domain.GlobalBrandIntelligenceRecord
	err := a.brands.FindOne(ctx, bson.M{"brand_key": brandKey}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brand intel record: %w", err)
	}
	return &record, nil
}

// PutBrandIntel upserts one collaborative record.
func (a *GlobalIntelAdapter) PutBrandIntel(ctx context.Context, record *domain.GlobalBrandIntelligenceRecord) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"brand_key": record.BrandKey}

	if _, err := a.brands.ReplaceOne(ctx, filter, record, opts); err != nil {
		return fmt.Errorf("failed to save brand intel record: %w", err)
	}
	return nil
}

// GetUserEngagement retrieves one profile, (nil, nil) when missing.
func (a *GlobalIntelAdapter) GetUserEngagement(ctx context.Context, userID uuid.UUID) (*domain.UserEngagementRecord, error) {
	var doc userEngagementDocument
	err := a.engagement.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user engagement record: %w", err)
	}
	return doc.toEntity()
}

// PutUserEngagement upserts one profile.
func (a *GlobalIntelAdapter) PutUserEngagement(ctx context.Context, record *domain.UserEngagementRecord) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"user_id": record.UserID.String()}

	if _, err := a.engagement.ReplaceOne(ctx, filter, toEngagementDocument(record), opts); err != nil {
		return fmt.Errorf("failed to save user engagement record: %w", err)
	}
	return nil
}

// ListSimilarEngagement returns profiles whose positive ratio lies within
// tolerance of the given ratio, excluding the user and thin histories.
func (a *GlobalIntelAdapter) ListSimilarEngagement(ctx context.Context, exclude uuid.UUID, ratio, tolerance float64, minRatings, limit int) ([]*domain.UserEngagementRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{
		"user_id":        bson.M{"$ne": exclude.String()},
		"total_ratings":  bson.M{"$gte": minRatings},
		"positive_ratio": bson.M{"$gte": ratio - tolerance, "$lte": ratio + tolerance},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "total_ratings", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.engagement.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list similar engagement profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.UserEngagementRecord
	for cursor.Next(ctx) {
		var doc userEngagementDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode engagement profile: %w", err)
		}
		record, err := doc.toEntity()
		if err != nil {
			continue // skip malformed legacy rows
		}
		records = append(records, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate engagement profiles: %w", err)
	}

	return records, nil
}

var _ out.GlobalIntelRepository = (*GlobalIntelAdapter)(nil)
