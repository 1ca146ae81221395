package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
)

// QuestionPool abstracts read access to the question bank for assembly and
// scoring.
type QuestionPool interface {
	FindIDsByPaper(ctx context.Context, paperID string) ([]string, error)
	SampleRandom(ctx context.Context, f repository.QuestionFilter, count int) ([]string, error)
	FetchByIDs(ctx context.Context, ids []string) (map[string]model.Question, error)
}

// Catalog abstracts the taxonomy lookups assembly and presentation need.
type Catalog interface {
	GetPaperDuration(ctx context.Context, paperID string) (int, error)
	ResolveNames(ctx context.Context, examIDs, subjectIDs, chapterIDs, paperIDs []string) (*repository.NameMaps, error)
}

// SessionStore abstracts test session persistence.
type SessionStore interface {
	Create(ctx context.Context, s *model.TestSession) error
	GetByID(ctx context.Context, id string) (*model.TestSession, error)
	MarkCompleted(ctx context.Context, id string, f model.CompletionFields) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.TestSession, error)
}

// ActivityLogger records fire-and-forget activity entries. Implementations
// must never fail the caller.
type ActivityLogger interface {
	Log(ctx context.Context, rec *model.ActivityRecord)
}

// TestService owns the test lifecycle: resolve a config into a sampling
// plan, assemble and persist a session, serve it for taking, score the
// submission, and render results.
type TestService struct {
	pool     QuestionPool
	catalog  Catalog
	sessions SessionStore
	activity ActivityLogger
	cfg      *config.Config
	log      zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	pool QuestionPool,
	catalog Catalog,
	sessions SessionStore,
	activity ActivityLogger,
	cfg *config.Config,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		pool:     pool,
		catalog:  catalog,
		sessions: sessions,
		activity: activity,
		cfg:      cfg,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// ─── Generation ───────────────────────────────────────────────────────────

// Generate resolves, assembles and persists a new test session for the user.
// A validation failure returns a non-nil field map and no error. A plan that
// matches zero questions still produces a (zero-length) session; rejecting
// that is a client-side concern.
func (s *TestService) Generate(ctx context.Context, userID string, raw *model.TestConfig) (*model.GenerateTestResponse, map[string]string, error) {
	plan, fields := ResolvePlan(raw, s.cfg.MinTestDurationMinutes)
	if fields != nil {
		return nil, fields, nil
	}

	questionIDs, duration, err := s.assemble(ctx, plan)
	if err != nil {
		return nil, nil, err
	}

	session := &model.TestSession{
		ID:              uuid.NewString(),
		CreatedBy:       userID,
		CreatedAt:       time.Now().UTC(),
		Config:          *raw, // stored verbatim for audit and re-display
		QuestionIDs:     questionIDs,
		DurationMinutes: duration,
		Status:          model.TestStatusNotStarted,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("test_id", session.ID).
		Str("user_id", userID).
		Int("questions", len(questionIDs)).
		Int("duration_minutes", duration).
		Msg("Test session created")

	return &model.GenerateTestResponse{
		TestID:        session.ID,
		Duration:      duration,
		QuestionCount: len(questionIDs),
	}, nil, nil
}

// Preview resolves a config and returns its deterministic per-subject split
// without sampling or persisting anything.
func (s *TestService) Preview(raw *model.TestConfig) (*model.TestPreview, map[string]string) {
	plan, fields := ResolvePlan(raw, s.cfg.MinTestDurationMinutes)
	if fields != nil {
		return nil, fields
	}
	return PreviewPlan(plan), nil
}

// assemble executes a sampling plan against the question pool. The returned
// sequence is already shuffled and fixed; nothing downstream may reorder it.
func (s *TestService) assemble(ctx context.Context, plan *SamplingPlan) ([]string, int, error) {
	switch plan.Mode {
	case model.TestTypePast:
		ids, err := s.pool.FindIDsByPaper(ctx, plan.PaperID)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch paper questions: %w", err)
		}
		duration, err := s.catalog.GetPaperDuration(ctx, plan.PaperID)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch paper duration: %w", err)
		}
		shuffleIDs(ids)
		return ids, duration, nil

	default: // custom
		var accumulated []string
		for _, subj := range plan.Subjects {
			base := repository.QuestionFilter{
				ExamID:     plan.ExamID,
				SubjectID:  subj.SubjectID,
				ChapterIDs: subj.ChapterIDs,
			}

			// Under-fill is fine: a thin chapter returns what it has and the
			// test simply ends up shorter than requested.
			if subj.MCQCount > 0 {
				base.Type = model.QuestionTypeSingleCorrect
				ids, err := s.pool.SampleRandom(ctx, base, subj.MCQCount)
				if err != nil {
					return nil, 0, fmt.Errorf("sample mcq questions: %w", err)
				}
				accumulated = append(accumulated, ids...)
			}
			if subj.NumericalCount > 0 {
				base.Type = model.QuestionTypeNumerical
				ids, err := s.pool.SampleRandom(ctx, base, subj.NumericalCount)
				if err != nil {
					return nil, 0, fmt.Errorf("sample numerical questions: %w", err)
				}
				accumulated = append(accumulated, ids...)
			}
		}

		accumulated = dedupeIDs(accumulated)
		shuffleIDs(accumulated)
		return accumulated, plan.DurationMinutes, nil
	}
}

// shuffleIDs permutes ids in place with an unbiased Fisher–Yates shuffle, so
// the final order carries no trace of subject or sampling order.
func shuffleIDs(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// dedupeIDs drops repeated ids, keeping first occurrences. Sampling batches
// are disjoint by construction (subjects and types never overlap), but the
// guard keeps a question from ever appearing twice in one test.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ─── Taking ───────────────────────────────────────────────────────────────

// GetTest returns the assembled test payload for the taking page. Questions
// are decorated with taxonomy names and sorted by (subject name asc,
// original sampling order) so the palette can group them; the stored
// questionIds order remains the authority for scoring.
func (s *TestService) GetTest(ctx context.Context, testID string) (*model.TestPayload, error) {
	session, err := s.sessions.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	questions, err := s.pool.FetchByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	names, err := s.resolveQuestionNames(ctx, questions)
	if err != nil {
		return nil, err
	}

	payload := &model.TestPayload{
		ID:        session.ID,
		Duration:  session.DurationMinutes,
		Config:    session.Config,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
		Questions: make([]model.TestQuestion, 0, len(session.QuestionIDs)),
	}

	for i, qid := range session.QuestionIDs {
		q, ok := questions[qid]
		if !ok {
			s.log.Warn().Str("test_id", testID).Str("question_id", qid).Msg("Question missing from catalog")
			continue
		}
		payload.Questions = append(payload.Questions, model.TestQuestion{
			ID:            q.ID,
			Text:          q.Text,
			Options:       q.Options,
			Type:          q.Type,
			Level:         q.Level,
			SubjectID:     q.SubjectID,
			OriginalOrder: i,
			ExamName:      names.Exams[q.ExamID],
			SubjectName:   names.Subjects[q.SubjectID],
			ChapterName:   names.Chapters[q.ChapterID],
		})
	}

	sort.SliceStable(payload.Questions, func(i, j int) bool {
		a, b := payload.Questions[i], payload.Questions[j]
		if a.SubjectName != b.SubjectName {
			return a.SubjectName < b.SubjectName
		}
		return a.OriginalOrder < b.OriginalOrder
	})

	return payload, nil
}

// ─── Submission ───────────────────────────────────────────────────────────

// Submit scores a finished attempt and completes the session. Exactly one of
// two racing submissions wins the store's conditional write; the loser
// surfaces repository.ErrAlreadySubmitted so clients can redirect to results
// instead of showing an error.
//
// The server accepts submissions at any time relative to the nominal
// duration and trusts the client-reported timeLeft.
func (s *TestService) Submit(ctx context.Context, userID string, req *model.SubmitTestRequest) (*model.SubmitTestResponse, error) {
	session, err := s.sessions.GetByID(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	if session.CreatedBy != userID {
		if s.cfg.StrictSubmitOwnership {
			return nil, fmt.Errorf("submit test %s: %w", req.TestID, ErrNotOwner)
		}
		s.log.Warn().
			Str("test_id", req.TestID).
			Str("owner", session.CreatedBy).
			Str("submitter", userID).
			Msg("Submission from non-owner accepted by policy")
	}

	if session.Status == model.TestStatusCompleted {
		return nil, fmt.Errorf("submit test %s: %w", req.TestID, repository.ErrAlreadySubmitted)
	}

	questions, err := s.pool.FetchByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for scoring: %w", err)
	}

	details := ScoreTest(session.QuestionIDs, req.Answers, questions, s.log)

	err = s.sessions.MarkCompleted(ctx, session.ID, model.CompletionFields{
		CompletedAt:     req.SubmittedAt.UTC(),
		TimeLeftSeconds: *req.TimeLeft,
		UserAnswers:     req.Answers,
		FinalStatuses:   req.FinalStatuses,
		ScoreDetails:    details,
	})
	if err != nil {
		return nil, err
	}

	s.logSubmissionActivity(ctx, userID, session.ID, details, *req.TimeLeft, req.SubmittedAt)

	s.log.Info().
		Str("test_id", session.ID).
		Str("user_id", userID).
		Int("score", details.Score).
		Msg("Test submitted")

	return &model.SubmitTestResponse{TestID: session.ID, Score: details.Score}, nil
}

// logSubmissionActivity emits the fire-and-forget activity record. Failures
// are swallowed by the logger; a lost activity entry must never fail a
// submission.
func (s *TestService) logSubmissionActivity(ctx context.Context, userID, testID string, details model.ScoreDetails, timeLeft int, at time.Time) {
	if s.activity == nil {
		return
	}

	payload, err := json.Marshal(model.SubmissionDetails{
		Score:          details.Score,
		CorrectCount:   details.CorrectCount,
		IncorrectCount: details.IncorrectCount,
		SkippedCount:   details.SkippedCount,
		TimeLeft:       timeLeft,
	})
	if err != nil {
		s.log.Error().Err(err).Str("test_id", testID).Msg("Marshal submission activity failed")
		return
	}

	s.activity.Log(ctx, &model.ActivityRecord{
		UserID:       userID,
		ActivityType: model.ActivityTestSubmission,
		TestID:       testID,
		Details:      payload,
		Timestamp:    at.UTC(),
	})
}

// ─── Results ──────────────────────────────────────────────────────────────

// Results renders the full results page for a completed session. Unlike
// submission, the results view is strictly owner-only.
func (s *TestService) Results(ctx context.Context, userID, testID string) (*model.ResultsResponse, error) {
	session, err := s.sessions.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userID {
		return nil, fmt.Errorf("results for test %s: %w", testID, ErrNotOwner)
	}
	if session.Status != model.TestStatusCompleted || session.ScoreDetails == nil {
		return nil, fmt.Errorf("results for test %s: %w", testID, ErrNotCompleted)
	}

	questions, err := s.pool.FetchByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	names, err := s.resolveQuestionNames(ctx, questions)
	if err != nil {
		return nil, err
	}

	details := session.ScoreDetails
	resp := &model.ResultsResponse{
		TestID:           session.ID,
		TestName:         session.Config.DisplayName(session.ID),
		CreatedAt:        session.CreatedAt,
		CompletedAt:      session.CompletedAt,
		Duration:         session.DurationMinutes,
		TimeLeftOnSubmit: session.TimeLeftOnSubmit,
		Score:            details.Score,
		TotalQuestions:   details.TotalQuestions,
		CorrectCount:     details.CorrectCount,
		IncorrectCount:   details.IncorrectCount,
		SkippedCount:     details.SkippedCount,
		Questions:        make([]model.ResultQuestion, 0, len(session.QuestionIDs)),
		SubjectAnalysis:  make(map[string]model.SubjectAnalysis),
	}

	for _, qid := range session.QuestionIDs {
		q, ok := questions[qid]
		if !ok {
			s.log.Warn().Str("test_id", testID).Str("question_id", qid).Msg("Question missing from catalog on results")
			continue
		}

		result := details.Results[qid]
		status := "skipped"
		if result.Answered {
			if result.Correct {
				status = "correct"
			} else {
				status = "incorrect"
			}
		}

		var correctAnswer any
		switch q.Type {
		case model.QuestionTypeSingleCorrect:
			if len(q.CorrectOption) > 0 {
				correctAnswer = q.CorrectOption[0]
			}
		case model.QuestionTypeNumerical:
			correctAnswer = q.CorrectValue
		}

		subjectName := names.Subjects[q.SubjectID]
		if subjectName == "" {
			subjectName = "Uncategorized"
		}

		resp.Questions = append(resp.Questions, model.ResultQuestion{
			ID:            q.ID,
			Text:          q.Text,
			Options:       q.Options,
			Type:          q.Type,
			SubjectID:     q.SubjectID,
			SubjectName:   subjectName,
			UserAnswer:    session.UserAnswers[qid],
			CorrectAnswer: correctAnswer,
			IsCorrect:     result.Correct,
			Answered:      result.Answered,
			Explanation:   q.Explanation,
			Status:        status,
		})

		analysis := resp.SubjectAnalysis[subjectName]
		analysis.Total++
		switch status {
		case "correct":
			analysis.Correct++
			analysis.Score += pointsCorrect
		case "incorrect":
			analysis.Incorrect++
			analysis.Score += pointsIncorrect
		default:
			analysis.Skipped++
		}
		resp.SubjectAnalysis[subjectName] = analysis
	}

	return resp, nil
}

// ─── History ──────────────────────────────────────────────────────────────

// ListRecent returns the user's latest sessions as dashboard summaries.
func (s *TestService) ListRecent(ctx context.Context, userID string, limit int) ([]model.TestSummary, error) {
	sessions, err := s.sessions.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent tests: %w", err)
	}

	summaries := make([]model.TestSummary, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		summary := model.TestSummary{
			ID:              sess.ID,
			TestName:        sess.Config.DisplayName(sess.ID),
			CreatedAt:       sess.CreatedAt,
			Status:          sess.Status,
			DurationMinutes: sess.DurationMinutes,
			QuestionCount:   len(sess.QuestionIDs),
		}
		if sess.ScoreDetails != nil {
			score := sess.ScoreDetails.Score
			summary.Score = &score
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// resolveQuestionNames gathers the distinct taxonomy ids across a question
// set and resolves their names in one batch.
func (s *TestService) resolveQuestionNames(ctx context.Context, questions map[string]model.Question) (*repository.NameMaps, error) {
	examSet := make(map[string]struct{})
	subjectSet := make(map[string]struct{})
	chapterSet := make(map[string]struct{})
	for _, q := range questions {
		examSet[q.ExamID] = struct{}{}
		subjectSet[q.SubjectID] = struct{}{}
		chapterSet[q.ChapterID] = struct{}{}
	}

	names, err := s.catalog.ResolveNames(ctx, keys(examSet), keys(subjectSet), keys(chapterSet), nil)
	if err != nil {
		return nil, fmt.Errorf("resolve taxonomy names: %w", err)
	}
	return names, nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
