package model

import (
	"encoding/json"
	"time"
)

// Activity types recorded by the service.
const (
	ActivityTestSubmission  = "test_submission"
	ActivityQuestionAttempt = "questionAttempt"
)

// ActivityRecord is one fire-and-forget activity log entry. Details is
// free-form per activity type (score summary for submissions, attempt
// outcome for single-question practice).
type ActivityRecord struct {
	ID           int64           `json:"id,omitempty"`
	UserID       string          `json:"userId"`
	ActivityType string          `json:"activityType"`
	TestID       string          `json:"testId,omitempty"`
	QuestionID   string          `json:"questionId,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// SubmissionDetails is the score summary embedded in a test_submission record.
type SubmissionDetails struct {
	Score          int `json:"score"`
	CorrectCount   int `json:"correctCount"`
	IncorrectCount int `json:"incorrectCount"`
	SkippedCount   int `json:"skippedCount"`
	TimeLeft       int `json:"timeLeft"`
}

// LogAttemptRequest is the payload for logging a single-question practice
// attempt from the question page.
type LogAttemptRequest struct {
	QuestionID    string    `json:"questionId" binding:"required"`
	QuestionType  string    `json:"questionType,omitempty"`
	UserAnswer    any       `json:"userAnswer,omitempty"`
	CorrectAnswer any       `json:"correctAnswer,omitempty"`
	IsCorrect     bool      `json:"isCorrect"`
	TimeTaken     *float64  `json:"timeTaken" binding:"required"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
}
