package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/torqhq/torq-backend/internal/model"
)

// TestSessionRepository persists test sessions. This is the only store the
// core writes to; question content lives in the read-only catalog.
type TestSessionRepository struct {
	pool *pgxpool.Pool
}

// NewTestSessionRepository creates a new TestSessionRepository.
func NewTestSessionRepository(pool *pgxpool.Pool) *TestSessionRepository {
	return &TestSessionRepository{pool: pool}
}

// Create inserts a new session and appends it to the owner's test history in
// one transaction. Returns ErrConflict if the id already exists — should not
// happen with generated UUIDs, but guarded anyway.
func (r *TestSessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO test_sessions (id, created_by, created_at, config, question_ids, duration_minutes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.CreatedBy, s.CreatedAt, cfg, s.QuestionIDs, s.DurationMinutes, s.Status,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", s.ID, ErrConflict)
	}

	// History is append-only: one row per generated test, never replaced.
	_, err = tx.Exec(ctx,
		`INSERT INTO user_test_history (user_id, test_id, created_at)
		 VALUES ($1, $2, $3)`,
		s.CreatedBy, s.ID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a full session.
func (r *TestSessionRepository) GetByID(ctx context.Context, id string) (*model.TestSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, created_by, created_at, config, question_ids, duration_minutes, status,
		        completed_at, time_left_seconds, user_answers, final_statuses, score_details
		 FROM test_sessions
		 WHERE id = $1`, id,
	)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// MarkCompleted writes the completion fields with a compare-and-swap on
// status, so exactly one of two racing submissions wins. The loser gets
// ErrAlreadySubmitted, which callers must treat as "already done", not as a
// failure.
func (r *TestSessionRepository) MarkCompleted(ctx context.Context, id string, f model.CompletionFields) error {
	answers, err := json.Marshal(f.UserAnswers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	statuses, err := json.Marshal(f.FinalStatuses)
	if err != nil {
		return fmt.Errorf("marshal final statuses: %w", err)
	}
	details, err := json.Marshal(f.ScoreDetails)
	if err != nil {
		return fmt.Errorf("marshal score details: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET status = $1,
		     completed_at = $2,
		     time_left_seconds = $3,
		     user_answers = $4,
		     final_statuses = $5,
		     score_details = $6
		 WHERE id = $7 AND status <> $1`,
		model.TestStatusCompleted, f.CompletedAt, f.TimeLeftSeconds,
		answers, statuses, details, id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the id is unknown or someone already completed it.
		var status model.TestStatus
		err := r.pool.QueryRow(ctx,
			`SELECT status FROM test_sessions WHERE id = $1`, id,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check session status: %w", err)
		}
		return fmt.Errorf("session %s: %w", id, ErrAlreadySubmitted)
	}
	return nil
}

// ListRecentByUser retrieves the user's sessions, most recent first.
func (r *TestSessionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_by, created_at, config, question_ids, duration_minutes, status,
		        completed_at, time_left_seconds, user_answers, final_statuses, score_details
		 FROM test_sessions
		 WHERE created_by = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// scanSession decodes one session row, unmarshalling the JSONB side columns.
func scanSession(row pgx.Row) (*model.TestSession, error) {
	var (
		s        model.TestSession
		cfg      []byte
		answers  []byte
		statuses []byte
		details  []byte
	)

	err := row.Scan(
		&s.ID, &s.CreatedBy, &s.CreatedAt, &cfg, &s.QuestionIDs, &s.DurationMinutes, &s.Status,
		&s.CompletedAt, &s.TimeLeftOnSubmit, &answers, &statuses, &details,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cfg, &s.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.UserAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	if len(statuses) > 0 {
		if err := json.Unmarshal(statuses, &s.FinalStatuses); err != nil {
			return nil, fmt.Errorf("unmarshal final statuses: %w", err)
		}
	}
	if len(details) > 0 {
		var sd model.ScoreDetails
		if err := json.Unmarshal(details, &sd); err != nil {
			return nil, fmt.Errorf("unmarshal score details: %w", err)
		}
		s.ScoreDetails = &sd
	}
	return &s, nil
}
