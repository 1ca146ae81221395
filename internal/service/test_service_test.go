package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
)

// ─── Fakes ────────────────────────────────────────────────────────────────

type fakePool struct {
	paperIDs  []string
	questions map[string]model.Question
	// sampled maps subject id + type to the ids SampleRandom hands out.
	sampled map[string][]string
}

func (f *fakePool) FindIDsByPaper(_ context.Context, _ string) ([]string, error) {
	return append([]string(nil), f.paperIDs...), nil
}

func (f *fakePool) SampleRandom(_ context.Context, flt repository.QuestionFilter, count int) ([]string, error) {
	ids := f.sampled[flt.SubjectID+"/"+string(flt.Type)]
	if len(ids) > count {
		ids = ids[:count]
	}
	return append([]string(nil), ids...), nil
}

func (f *fakePool) FetchByIDs(_ context.Context, ids []string) (map[string]model.Question, error) {
	out := make(map[string]model.Question, len(ids))
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

type fakeCatalog struct {
	paperDuration int
	subjectNames  map[string]string
}

func (f *fakeCatalog) GetPaperDuration(_ context.Context, _ string) (int, error) {
	if f.paperDuration == 0 {
		return repository.DefaultPaperDurationMinutes, nil
	}
	return f.paperDuration, nil
}

func (f *fakeCatalog) ResolveNames(_ context.Context, examIDs, subjectIDs, chapterIDs, paperIDs []string) (*repository.NameMaps, error) {
	maps := &repository.NameMaps{
		Exams:    map[string]string{},
		Subjects: map[string]string{},
		Chapters: map[string]string{},
		Papers:   map[string]string{},
	}
	for _, id := range subjectIDs {
		if name, ok := f.subjectNames[id]; ok {
			maps.Subjects[id] = name
		}
	}
	return maps, nil
}

type fakeStore struct {
	sessions map[string]*model.TestSession
	created  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*model.TestSession)}
}

func (f *fakeStore) Create(_ context.Context, s *model.TestSession) error {
	if _, exists := f.sessions[s.ID]; exists {
		return repository.ErrConflict
	}
	cp := *s
	f.sessions[s.ID] = &cp
	f.created++
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*model.TestSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, id string, fields model.CompletionFields) error {
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Status == model.TestStatusCompleted {
		return repository.ErrAlreadySubmitted
	}
	s.Status = model.TestStatusCompleted
	s.CompletedAt = &fields.CompletedAt
	s.TimeLeftOnSubmit = &fields.TimeLeftSeconds
	s.UserAnswers = fields.UserAnswers
	s.FinalStatuses = fields.FinalStatuses
	details := fields.ScoreDetails
	s.ScoreDetails = &details
	return nil
}

func (f *fakeStore) ListRecentByUser(_ context.Context, userID string, limit int) ([]model.TestSession, error) {
	var out []model.TestSession
	for _, s := range f.sessions {
		if s.CreatedBy == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeActivity struct {
	records []*model.ActivityRecord
}

func (f *fakeActivity) Log(_ context.Context, rec *model.ActivityRecord) {
	f.records = append(f.records, rec)
}

func newTestService(pool *fakePool, catalog *fakeCatalog, store *fakeStore, activity *fakeActivity, cfg *config.Config) *TestService {
	if cfg == nil {
		cfg = &config.Config{MinTestDurationMinutes: 10}
	}
	return NewTestService(pool, catalog, store, activity, cfg, zerolog.Nop())
}

// ─── Generation ───────────────────────────────────────────────────────────

func TestGenerateCustomUnderFill(t *testing.T) {
	pool := &fakePool{
		sampled: map[string][]string{
			// Only 3 MCQs exist for the requested 5.
			"phy/singleCorrect": {"q1", "q2", "q3"},
			"phy/numerical":     {"q4", "q5", "q6", "q7", "q8"},
		},
	}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, nil)

	resp, fields, err := svc.Generate(context.Background(), "user-1", validCustomConfig())
	if err != nil || fields != nil {
		t.Fatalf("Generate failed: err=%v fields=%v", err, fields)
	}

	// 3 of 5 MCQs plus 5 numericals.
	if resp.QuestionCount != 8 {
		t.Errorf("QuestionCount = %d, want 8", resp.QuestionCount)
	}
	if resp.Duration != 60 {
		t.Errorf("Duration = %d, want 60", resp.Duration)
	}
	if store.created != 1 {
		t.Errorf("sessions created = %d, want 1", store.created)
	}

	session := store.sessions[resp.TestID]
	if session.CreatedBy != "user-1" {
		t.Errorf("CreatedBy = %q, want user-1", session.CreatedBy)
	}
	if session.Status != model.TestStatusNotStarted {
		t.Errorf("Status = %s, want not_started", session.Status)
	}
}

func TestGenerateDeduplicatesSampledIDs(t *testing.T) {
	pool := &fakePool{
		sampled: map[string][]string{
			"phy/singleCorrect": {"q1", "q2", "q3", "q1", "q2"},
		},
	}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, nil)

	cfg := validCustomConfig()
	cfg.CustomConfig.QuestionType = model.QuestionKindMCQ
	cfg.CustomConfig.RatioMCQPercent = nil

	resp, fields, err := svc.Generate(context.Background(), "user-1", cfg)
	if err != nil || fields != nil {
		t.Fatalf("Generate failed: err=%v fields=%v", err, fields)
	}

	session := store.sessions[resp.TestID]
	seen := make(map[string]bool)
	for _, id := range session.QuestionIDs {
		if seen[id] {
			t.Fatalf("question %s appears twice in %v", id, session.QuestionIDs)
		}
		seen[id] = true
	}
	if len(session.QuestionIDs) != 3 {
		t.Errorf("QuestionIDs = %d, want 3 after de-duplication", len(session.QuestionIDs))
	}
}

func TestGeneratePastPaper(t *testing.T) {
	pool := &fakePool{paperIDs: []string{"p1", "p2", "p3", "p4"}}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{paperDuration: 120}, store, &fakeActivity{}, nil)

	cfg := &model.TestConfig{
		SelectedExam:  "jee",
		TestType:      model.TestTypePast,
		SelectedPaper: strPtr("jee-2023-jan"),
	}

	resp, fields, err := svc.Generate(context.Background(), "user-1", cfg)
	if err != nil || fields != nil {
		t.Fatalf("Generate failed: err=%v fields=%v", err, fields)
	}

	if resp.Duration != 120 {
		t.Errorf("Duration = %d, want paper duration 120", resp.Duration)
	}

	session := store.sessions[resp.TestID]
	got := append([]string(nil), session.QuestionIDs...)
	sort.Strings(got)
	want := []string{"p1", "p2", "p3", "p4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("QuestionIDs = %v, want permutation of %v", session.QuestionIDs, want)
		}
	}
}

func TestGenerateValidationFailureCreatesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(&fakePool{}, &fakeCatalog{}, store, &fakeActivity{}, nil)

	cfg := validCustomConfig()
	cfg.CustomConfig.Subjects = nil

	resp, fields, err := svc.Generate(context.Background(), "user-1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != nil {
		t.Error("expected nil response on validation failure")
	}
	if fields == nil {
		t.Fatal("expected field errors")
	}
	if store.created != 0 {
		t.Errorf("sessions created = %d, want 0", store.created)
	}
}

func TestShuffleIDsIsPermutation(t *testing.T) {
	original := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	shuffled := append([]string(nil), original...)
	shuffleIDs(shuffled)

	if len(shuffled) != len(original) {
		t.Fatalf("length changed: %d -> %d", len(original), len(shuffled))
	}
	want := append([]string(nil), original...)
	got := append([]string(nil), shuffled...)
	sort.Strings(want)
	sort.Strings(got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("shuffle is not a permutation: %v", shuffled)
		}
	}
}

// Each id should land in each position with roughly equal frequency. With
// 8000 runs over 4 ids the expected count per cell is 2000 with a standard
// deviation of ~39, so a ±10% band is far outside noise.
func TestShuffleIDsIsUniform(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	const runs = 8000

	counts := make(map[string][]int, len(ids))
	for _, id := range ids {
		counts[id] = make([]int, len(ids))
	}

	for i := 0; i < runs; i++ {
		shuffled := append([]string(nil), ids...)
		shuffleIDs(shuffled)
		for pos, id := range shuffled {
			counts[id][pos]++
		}
	}

	expected := runs / len(ids)
	tolerance := expected / 10
	for id, positions := range counts {
		for pos, n := range positions {
			if n < expected-tolerance || n > expected+tolerance {
				t.Errorf("id %s at position %d: %d occurrences, want %d±%d",
					id, pos, n, expected, tolerance)
			}
		}
	}
}

// ─── Submission ───────────────────────────────────────────────────────────

func seedSession(store *fakeStore, id, owner string, questionIDs []string) {
	store.sessions[id] = &model.TestSession{
		ID:              id,
		CreatedBy:       owner,
		CreatedAt:       time.Now().UTC(),
		Config:          *validCustomConfig(),
		QuestionIDs:     questionIDs,
		DurationMinutes: 60,
		Status:          model.TestStatusNotStarted,
	}
}

func submitRequest(testID string) *model.SubmitTestRequest {
	return &model.SubmitTestRequest{
		TestID:        testID,
		Answers:       map[string]any{"q1": float64(1), "q2": "7700"},
		TimeLeft:      intPtr(900),
		FinalStatuses: map[string]string{"q1": "answered", "q2": "answered", "q3": "not_visited"},
		SubmittedAt:   time.Now().UTC(),
	}
}

func TestSubmitScoresAndCompletes(t *testing.T) {
	pool := &fakePool{
		questions: map[string]model.Question{
			"q1": mcqQuestion("q1", 1),
			"q2": numericalQuestion("q2", "7700"),
			"q3": mcqQuestion("q3", 0),
		},
	}
	store := newFakeStore()
	activity := &fakeActivity{}
	svc := newTestService(pool, &fakeCatalog{}, store, activity, nil)

	seedSession(store, "t1", "user-1", []string{"q1", "q2", "q3"})

	resp, err := svc.Submit(context.Background(), "user-1", submitRequest("t1"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if resp.Score != 8 {
		t.Errorf("Score = %d, want 8", resp.Score)
	}

	session := store.sessions["t1"]
	if session.Status != model.TestStatusCompleted {
		t.Errorf("Status = %s, want completed", session.Status)
	}
	if session.ScoreDetails == nil || session.ScoreDetails.SkippedCount != 1 {
		t.Errorf("ScoreDetails = %+v, want 1 skipped", session.ScoreDetails)
	}
	if session.TimeLeftOnSubmit == nil || *session.TimeLeftOnSubmit != 900 {
		t.Errorf("TimeLeftOnSubmit = %v, want 900", session.TimeLeftOnSubmit)
	}

	if len(activity.records) != 1 {
		t.Fatalf("activity records = %d, want 1", len(activity.records))
	}
	if activity.records[0].ActivityType != model.ActivityTestSubmission {
		t.Errorf("ActivityType = %s, want %s", activity.records[0].ActivityType, model.ActivityTestSubmission)
	}
}

func TestSubmitTwiceReturnsAlreadySubmitted(t *testing.T) {
	pool := &fakePool{questions: map[string]model.Question{"q1": mcqQuestion("q1", 1)}}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, nil)

	seedSession(store, "t1", "user-1", []string{"q1"})

	if _, err := svc.Submit(context.Background(), "user-1", submitRequest("t1")); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err := svc.Submit(context.Background(), "user-1", submitRequest("t1"))
	if !errors.Is(err, repository.ErrAlreadySubmitted) {
		t.Errorf("second submit err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := newTestService(&fakePool{}, &fakeCatalog{}, newFakeStore(), &fakeActivity{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", submitRequest("missing"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitOwnershipPolicy(t *testing.T) {
	newSetup := func(strict bool) (*TestService, *fakeStore) {
		pool := &fakePool{questions: map[string]model.Question{"q1": mcqQuestion("q1", 1)}}
		store := newFakeStore()
		cfg := &config.Config{MinTestDurationMinutes: 10, StrictSubmitOwnership: strict}
		return newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, cfg), store
	}

	t.Run("strict rejects non-owner", func(t *testing.T) {
		svc, store := newSetup(true)
		seedSession(store, "t1", "owner", []string{"q1"})

		_, err := svc.Submit(context.Background(), "intruder", submitRequest("t1"))
		if !errors.Is(err, ErrNotOwner) {
			t.Errorf("err = %v, want ErrNotOwner", err)
		}
		if store.sessions["t1"].Status == model.TestStatusCompleted {
			t.Error("session must not complete on rejected submission")
		}
	})

	t.Run("lenient accepts non-owner", func(t *testing.T) {
		svc, store := newSetup(false)
		seedSession(store, "t1", "owner", []string{"q1"})

		if _, err := svc.Submit(context.Background(), "other", submitRequest("t1")); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if store.sessions["t1"].Status != model.TestStatusCompleted {
			t.Error("session should complete under lenient policy")
		}
	})
}

// ─── Taking and results ───────────────────────────────────────────────────

func TestGetTestOrdersBySubjectThenOriginalOrder(t *testing.T) {
	phyQ := func(id string) model.Question {
		q := mcqQuestion(id, 0)
		q.SubjectID = "phy"
		return q
	}
	chemQ := func(id string) model.Question {
		q := mcqQuestion(id, 0)
		q.SubjectID = "chem"
		return q
	}
	pool := &fakePool{questions: map[string]model.Question{
		"q1": phyQ("q1"), "q2": chemQ("q2"), "q3": phyQ("q3"), "q4": chemQ("q4"),
	}}
	catalog := &fakeCatalog{subjectNames: map[string]string{"phy": "Physics", "chem": "Chemistry"}}
	store := newFakeStore()
	svc := newTestService(pool, catalog, store, &fakeActivity{}, nil)

	seedSession(store, "t1", "user-1", []string{"q1", "q2", "q3", "q4"})

	payload, err := svc.GetTest(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTest failed: %v", err)
	}

	var gotIDs []string
	for _, q := range payload.Questions {
		gotIDs = append(gotIDs, q.ID)
	}
	// Chemistry sorts before Physics; within a subject, original order holds.
	want := []string{"q2", "q4", "q1", "q3"}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotIDs, want)
		}
	}
	if payload.Questions[0].SubjectName != "Chemistry" {
		t.Errorf("SubjectName = %q, want Chemistry", payload.Questions[0].SubjectName)
	}
	if payload.Questions[2].OriginalOrder != 0 {
		t.Errorf("q1 OriginalOrder = %d, want 0", payload.Questions[2].OriginalOrder)
	}
}

func TestResultsAccessControl(t *testing.T) {
	pool := &fakePool{questions: map[string]model.Question{"q1": mcqQuestion("q1", 1)}}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, nil)

	seedSession(store, "t1", "owner", []string{"q1"})

	t.Run("not completed", func(t *testing.T) {
		_, err := svc.Results(context.Background(), "owner", "t1")
		if !errors.Is(err, ErrNotCompleted) {
			t.Errorf("err = %v, want ErrNotCompleted", err)
		}
	})

	if _, err := svc.Submit(context.Background(), "owner", submitRequest("t1")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	t.Run("non-owner forbidden", func(t *testing.T) {
		_, err := svc.Results(context.Background(), "intruder", "t1")
		if !errors.Is(err, ErrNotOwner) {
			t.Errorf("err = %v, want ErrNotOwner", err)
		}
	})

	t.Run("owner allowed", func(t *testing.T) {
		if _, err := svc.Results(context.Background(), "owner", "t1"); err != nil {
			t.Errorf("Results failed: %v", err)
		}
	})
}

func TestResultsSubjectAnalysis(t *testing.T) {
	phy := func(id string, correct int) model.Question {
		q := mcqQuestion(id, correct)
		q.SubjectID = "phy"
		return q
	}
	pool := &fakePool{questions: map[string]model.Question{
		"q1": phy("q1", 1),
		"q2": phy("q2", 2),
		"q3": phy("q3", 3),
	}}
	catalog := &fakeCatalog{subjectNames: map[string]string{"phy": "Physics"}}
	store := newFakeStore()
	svc := newTestService(pool, catalog, store, &fakeActivity{}, nil)

	seedSession(store, "t1", "owner", []string{"q1", "q2", "q3"})

	req := submitRequest("t1")
	// q1 correct, q2 incorrect, q3 skipped.
	req.Answers = map[string]any{"q1": float64(1), "q2": float64(0)}
	if _, err := svc.Submit(context.Background(), "owner", req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	results, err := svc.Results(context.Background(), "owner", "t1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}

	analysis, ok := results.SubjectAnalysis["Physics"]
	if !ok {
		t.Fatalf("SubjectAnalysis = %v, want Physics entry", results.SubjectAnalysis)
	}
	if analysis.Total != 3 || analysis.Correct != 1 || analysis.Incorrect != 1 || analysis.Skipped != 1 {
		t.Errorf("analysis = %+v, want 3 total, 1/1/1", analysis)
	}
	if analysis.Score != 3 {
		t.Errorf("subject score = %d, want 3", analysis.Score)
	}
	if results.Score != 3 {
		t.Errorf("overall score = %d, want 3", results.Score)
	}
	if results.TestName == "" {
		t.Error("TestName should never be empty")
	}
}

// ─── History ──────────────────────────────────────────────────────────────

func TestListRecentSummaries(t *testing.T) {
	pool := &fakePool{questions: map[string]model.Question{"q1": mcqQuestion("q1", 1)}}
	store := newFakeStore()
	svc := newTestService(pool, &fakeCatalog{}, store, &fakeActivity{}, nil)

	seedSession(store, "t1", "user-1", []string{"q1"})
	seedSession(store, "t2", "user-1", []string{"q1"})
	seedSession(store, "t3", "someone-else", []string{"q1"})

	if _, err := svc.Submit(context.Background(), "user-1", submitRequest("t1")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	summaries, err := svc.ListRecent(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	byID := make(map[string]model.TestSummary)
	for _, s := range summaries {
		byID[s.ID] = s
	}
	if byID["t1"].Score == nil {
		t.Error("completed session should carry a score")
	}
	if byID["t2"].Score != nil {
		t.Error("pending session should have no score")
	}
	if byID["t1"].QuestionCount != 1 {
		t.Errorf("QuestionCount = %d, want 1", byID["t1"].QuestionCount)
	}
}
