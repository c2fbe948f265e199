package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/taponn/taponn-api/internal/data/pgxutil"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

const analyticsColumns = `
	id, user_id, profile_id, qr_code_id, event_type, event_category,
	event_action, metadata, created_at`

// AnalyticsRepo provides append-only storage for engagement events.
type AnalyticsRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAnalyticsRepo creates an AnalyticsRepo with the real clock.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAnalyticsRepoWithTimeProvider creates an AnalyticsRepo with a custom clock (useful for tests).
func NewAnalyticsRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AnalyticsRepo {
	return &AnalyticsRepo{DB: db, timeProvider: tp}
}

// Record appends a new event.
func (r *AnalyticsRepo) Record(ctx context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error) {
	if req == nil {
		return nil, apperrors.Validation("record event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := r.timeProvider.Now().UTC()
	var out model.AnalyticsEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.AnalyticsEvent](ctx, conn, `
			INSERT INTO analytics_events (
				user_id, profile_id, qr_code_id, event_type, event_category,
				event_action, metadata, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+analyticsColumns,
			req.UserID, req.ProfileID, req.QRCodeID, req.EventType,
			req.EventCategory, req.EventAction, metadata, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListByUser retrieves a user's events within the window, newest first.
func (r *AnalyticsRepo) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*model.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var rowsOut []model.AnalyticsEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rowsOut, err = pgxutil.QueryMany[model.AnalyticsEvent](ctx, conn,
			`SELECT `+analyticsColumns+` FROM analytics_events
			 WHERE user_id = $1 AND created_at >= $2
			 ORDER BY created_at DESC LIMIT $3`,
			userID, since.UTC(), limit,
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.AnalyticsEvent, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// CountByType aggregates event counts per event_type for a user since
// the given instant. Powers the dashboard summary tiles.
func (r *AnalyticsRepo) CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64)
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT event_type, COUNT(*) FROM analytics_events
			WHERE user_id = $1 AND created_at >= $2
			GROUP BY event_type`,
			userID, since.UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var eventType string
			var count int64
			if err := rows.Scan(&eventType, &count); err != nil {
				return err
			}
			counts[eventType] = count
		}
		return rows.Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to count analytics events: %w", apperrors.MapDBError(err))
	}
	return counts, nil
}
