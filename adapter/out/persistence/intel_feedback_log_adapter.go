// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
)

// FeedbackLogAdapter implements out.FeedbackLogRepository on PostgreSQL as an
// append-only audit trail. Rows are inserted and read, never updated.
type FeedbackLogAdapter struct {
	db *sqlx.DB
}

// NewFeedbackLogAdapter creates a new FeedbackLogAdapter.
func NewFeedbackLogAdapter(db *sqlx.DB) *FeedbackLogAdapter {
	return &FeedbackLogAdapter{db: db}
}

// feedbackEventRow represents the database row for feedback events. The
// context travels as JSONB; it is privacy-constrained by construction and
// never contains full bodies.
type feedbackEventRow struct {
	ID         int64          `db:"id"`
	UserID     uuid.UUID      `db:"user_id"`
	BrandKey   string         `db:"brand_key"`
	BrandName  string         `db:"brand_name"`
	Rating     string         `db:"rating"`
	Context    sql.NullString `db:"context"`
	RecordedAt time.Time      `db:"recorded_at"`
}

func (r *feedbackEventRow) toEntity() (*domain.FeedbackEvent, error) {
	event := &domain.FeedbackEvent{
		ID:         r.ID,
		UserID:     r.UserID,
		BrandKey:   r.BrandKey,
		BrandName:  r.BrandName,
		Rating:     domain.Rating(r.Rating),
		RecordedAt: r.RecordedAt,
	}
	if r.Context.Valid && r.Context.String != "" {
		if err := json.Unmarshal([]byte(r.Context.String), &event.Context); err != nil {
			return nil, fmt.Errorf("failed to decode feedback context: %w", err)
		}
	}
	return event, nil
}

// EnsureSchema creates the append-only table when it does not exist yet.
func (a *FeedbackLogAdapter) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS feedback_events (
			id          BIGSERIAL PRIMARY KEY,
			user_id     UUID        NOT NULL,
			brand_key   TEXT        NOT NULL,
			brand_name  TEXT        NOT NULL DEFAULT '',
			rating      TEXT        NOT NULL,
			context     JSONB,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_events_user
			ON feedback_events (user_id, recorded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_feedback_events_brand
			ON feedback_events (brand_key);`

	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure feedback schema: %w", err)
	}
	return nil
}

// Append inserts one feedback event.
func (a *FeedbackLogAdapter) Append(ctx context.Context, event *domain.FeedbackEvent) error {
	contextJSON, err := json.Marshal(event.Context)
	if err != nil {
		return fmt.Errorf("failed to encode feedback context: %w", err)
	}

	query := `
		INSERT INTO feedback_events (user_id, brand_key, brand_name, rating, context, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if err := a.db.QueryRowContext(ctx, query,
		event.UserID, event.BrandKey, event.BrandName, string(event.Rating),
		string(contextJSON), event.RecordedAt,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}

	return nil
}

// ListByUser returns a user's feedback trail, newest first.
func (a *FeedbackLogAdapter) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.FeedbackEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []feedbackEventRow
	query := `
		SELECT id, user_id, brand_key, brand_name, rating, context, recorded_at
		FROM feedback_events
		WHERE user_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`

	if err := a.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list feedback events: %w", err)
	}

	events := make([]*domain.FeedbackEvent, 0, len(rows))
	for i := range rows {
		event, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

var _ out.FeedbackLogRepository = (*FeedbackLogAdapter)(nil)
