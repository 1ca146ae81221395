package model

import (
	"time"
)

// TestStatus enumerates test session states. A session moves
// not_started → completed exactly once; there is no persisted in-progress
// state (the countdown lives on the client).
type TestStatus string

const (
	TestStatusNotStarted TestStatus = "not_started"
	TestStatusCompleted  TestStatus = "completed"
)

// TestSession is a generated, persisted test instance. QuestionIDs is fixed
// at creation and is authoritative for both presentation order and scoring;
// it is never re-derived after creation.
type TestSession struct {
	ID              string     `json:"_id"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	Config          TestConfig `json:"config"`
	QuestionIDs     []string   `json:"questionIds"`
	DurationMinutes int        `json:"duration"`
	Status          TestStatus `json:"status"`

	// Set once on completion.
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	TimeLeftOnSubmit *int              `json:"timeLeftOnSubmit,omitempty"`
	UserAnswers      map[string]any    `json:"userAnswers,omitempty"`
	FinalStatuses    map[string]string `json:"finalStatuses,omitempty"`
	ScoreDetails     *ScoreDetails     `json:"scoreDetails,omitempty"`
}

// CompletionFields is everything written by the single completion update.
type CompletionFields struct {
	CompletedAt     time.Time
	TimeLeftSeconds int
	UserAnswers     map[string]any
	FinalStatuses   map[string]string
	ScoreDetails    ScoreDetails
}

// QuestionResult is the scoring outcome for one question.
type QuestionResult struct {
	Answered bool `json:"answered"`
	Correct  bool `json:"correct"`
}

// ScoreDetails is the write-once score breakdown computed on submission.
type ScoreDetails struct {
	Score          int                       `json:"score"`
	CorrectCount   int                       `json:"correctCount"`
	IncorrectCount int                       `json:"incorrectCount"`
	SkippedCount   int                       `json:"skippedCount"`
	TotalQuestions int                       `json:"totalQuestions"`
	Results        map[string]QuestionResult `json:"results"`
}

// TestSummary is the list shape for recent tests on the dashboard.
type TestSummary struct {
	ID              string     `json:"_id"`
	TestName        string     `json:"testName"`
	CreatedAt       time.Time  `json:"createdAt"`
	Status          TestStatus `json:"status"`
	DurationMinutes int        `json:"duration"`
	QuestionCount   int        `json:"questionCount"`
	Score           *int       `json:"score,omitempty"`
}

// ─── Client payloads ───────────────────────────────────────────────────────

// GenerateTestResponse is returned right after assembly.
type GenerateTestResponse struct {
	TestID        string `json:"testId"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"questionCount"`
}

// TestPayload is the assembled test served to the taking page. Questions are
// sorted by (subject name asc, original sampling order) for palette grouping;
// the sort is a read-time presentation convenience, not stored order.
type TestPayload struct {
	ID        string         `json:"_id"`
	Duration  int            `json:"duration"`
	Config    TestConfig     `json:"config"`
	Status    TestStatus     `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	Questions []TestQuestion `json:"questions"`
}

// SubmitTestRequest carries a finished attempt. Answer values are raw client
// values (option index or numerical string); null/empty means skipped.
// FinalStatuses is the palette's visit/answer state, opaque to scoring.
type SubmitTestRequest struct {
	TestID        string            `json:"testId" binding:"required"`
	Answers       map[string]any    `json:"answers" binding:"required"`
	TimeLeft      *int              `json:"timeLeft" binding:"required"`
	FinalStatuses map[string]string `json:"finalStatuses" binding:"required"`
	SubmittedAt   time.Time         `json:"submittedAt" binding:"required"`
}

// SubmitTestResponse acknowledges a scored submission.
type SubmitTestResponse struct {
	TestID string `json:"testId"`
	Score  int    `json:"score"`
}

// ResultQuestion is the per-question detail on the results page.
type ResultQuestion struct {
	ID            string       `json:"_id"`
	Text          string       `json:"questionText"`
	Options       []string     `json:"options,omitempty"`
	Type          QuestionType `json:"type"`
	SubjectID     string       `json:"subject"`
	SubjectName   string       `json:"subjectName"`
	UserAnswer    any          `json:"userAnswer"`
	CorrectAnswer any          `json:"correctAnswer"`
	IsCorrect     bool         `json:"isCorrect"`
	Answered      bool         `json:"answered"`
	Explanation   string       `json:"explanation,omitempty"`
	Status        string       `json:"status"` // correct | incorrect | skipped
}

// SubjectAnalysis aggregates results per subject.
type SubjectAnalysis struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Skipped   int `json:"skipped"`
	Score     int `json:"score"`
}

// ResultsResponse is the full results-page payload.
type ResultsResponse struct {
	TestID           string                     `json:"testId"`
	TestName         string                     `json:"testName"`
	CreatedAt        time.Time                  `json:"createdAt"`
	CompletedAt      *time.Time                 `json:"completedAt"`
	Duration         int                        `json:"duration"`
	TimeLeftOnSubmit *int                       `json:"timeLeftOnSubmit"`
	Score            int                        `json:"score"`
	TotalQuestions   int                        `json:"totalQuestions"`
	CorrectCount     int                        `json:"correctCount"`
	IncorrectCount   int                        `json:"incorrectCount"`
	SkippedCount     int                        `json:"skippedCount"`
	Questions        []ResultQuestion           `json:"questions"`
	SubjectAnalysis  map[string]SubjectAnalysis `json:"subjectAnalysis"`
}

// TestPreview is the deterministic pre-generation summary of a custom plan.
type TestPreview struct {
	Subjects   []SubjectPreview `json:"subjects"`
	TotalCount int              `json:"totalCount"`
	Duration   int              `json:"duration"`
}

// SubjectPreview is one subject's resolved MCQ/numerical split.
type SubjectPreview struct {
	SubjectID      string `json:"subjectId"`
	MCQCount       int    `json:"mcqCount"`
	NumericalCount int    `json:"numericalCount"`
}
