package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/model"
)

// ActivityReader reads persisted activity for the dashboard feed.
type ActivityReader interface {
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
}

// ActivityService buffers activity records through a Redis queue. A worker
// drains the queue and writes to Postgres in batches; the HTTP path only
// ever does a single RPush.
type ActivityService struct {
	rdb    *redis.Client
	reader ActivityReader
	log    zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(rdb *redis.Client, reader ActivityReader, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		rdb:    rdb,
		reader: reader,
		log:    log.With().Str("component", "activity_service").Logger(),
	}
}

// Log enqueues a record for asynchronous persistence. Queue failures are
// logged and dropped; activity is advisory data and must never fail the
// operation that produced it.
func (s *ActivityService) Log(ctx context.Context, rec *model.ActivityRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		s.log.Error().Err(err).Str("activity_type", rec.ActivityType).Msg("Marshal activity record failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.ActivityQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("activity_type", rec.ActivityType).Msg("Enqueue activity record failed")
	}
}

// LogQuestionAttempt records a single-question practice attempt.
func (s *ActivityService) LogQuestionAttempt(ctx context.Context, userID string, req *model.LogAttemptRequest) error {
	details, err := json.Marshal(map[string]any{
		"questionType":  req.QuestionType,
		"userAnswer":    req.UserAnswer,
		"correctAnswer": req.CorrectAnswer,
		"isCorrect":     req.IsCorrect,
		"timeTaken":     req.TimeTaken,
	})
	if err != nil {
		return fmt.Errorf("marshal attempt details: %w", err)
	}

	s.Log(ctx, &model.ActivityRecord{
		UserID:       userID,
		ActivityType: model.ActivityQuestionAttempt,
		QuestionID:   req.QuestionID,
		Details:      details,
		Timestamp:    req.Timestamp.UTC(),
	})
	return nil
}

// ListRecent returns the user's latest persisted activity. Entries still in
// the queue are not visible yet; the feed is eventually consistent by a few
// seconds.
func (s *ActivityService) ListRecent(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	records, err := s.reader.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	return records, nil
}

var _ ActivityLogger = (*ActivityService)(nil)
