package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/torqhq/torq-backend/internal/model"
)

// ActivityRepository persists activity log entries.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Insert writes a single activity record.
func (r *ActivityRepository) Insert(ctx context.Context, a *model.ActivityRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO activity_log (user_id, activity_type, test_id, question_id, details, recorded_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		 RETURNING id`,
		a.UserID, a.ActivityType, a.TestID, a.QuestionID, []byte(a.Details), a.Timestamp,
	).Scan(&a.ID)
}

// BulkInsert writes a batch of activity records in one round trip using
// UNNEST, the same shape the drain worker flushes.
func (r *ActivityRepository) BulkInsert(ctx context.Context, batch []*model.ActivityRecord) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	userIDs := make([]string, 0, n)
	types := make([]string, 0, n)
	testIDs := make([]string, 0, n)
	questionIDs := make([]string, 0, n)
	details := make([][]byte, 0, n)
	timestamps := make([]time.Time, 0, n)

	for _, a := range batch {
		userIDs = append(userIDs, a.UserID)
		types = append(types, a.ActivityType)
		testIDs = append(testIDs, a.TestID)
		questionIDs = append(questionIDs, a.QuestionID)
		details = append(details, []byte(a.Details))
		timestamps = append(timestamps, a.Timestamp)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_log (user_id, activity_type, test_id, question_id, details, recorded_at)
		 SELECT u.user_id, u.activity_type, NULLIF(u.test_id, ''), NULLIF(u.question_id, ''), u.details, u.recorded_at
		 FROM UNNEST(
		     $1::text[],
		     $2::text[],
		     $3::text[],
		     $4::text[],
		     $5::jsonb[],
		     $6::timestamptz[]
		 ) AS u (user_id, activity_type, test_id, question_id, details, recorded_at)`,
		userIDs, types, testIDs, questionIDs, details, timestamps,
	)
	if err != nil {
		return fmt.Errorf("bulk insert activity: %w", err)
	}
	return nil
}

// ListRecentByUser returns the user's latest activity entries, newest first.
func (r *ActivityRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, activity_type, COALESCE(test_id, ''), COALESCE(question_id, ''), details, recorded_at
		 FROM activity_log
		 WHERE user_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var records []model.ActivityRecord
	for rows.Next() {
		var (
			a       model.ActivityRecord
			details []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.TestID, &a.QuestionID, &details, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Details = details
		records = append(records, a)
	}
	return records, rows.Err()
}
