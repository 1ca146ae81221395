package service

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/model"
)

func mcqQuestion(id string, correct int) model.Question {
	return model.Question{
		ID:            id,
		Type:          model.QuestionTypeSingleCorrect,
		Options:       []string{"A", "B", "C", "D"},
		CorrectOption: []int{correct},
	}
}

func numericalQuestion(id, correct string) model.Question {
	return model.Question{
		ID:           id,
		Type:         model.QuestionTypeNumerical,
		CorrectValue: correct,
	}
}

func TestScoreTestMixedOutcomes(t *testing.T) {
	questionIDs := []string{"q1", "q2", "q3"}
	questions := map[string]model.Question{
		"q1": mcqQuestion("q1", 1),
		"q2": numericalQuestion("q2", "7700"),
		"q3": mcqQuestion("q3", 2),
	}
	// q1 answered as a JSON number, q2 with trailing whitespace, q3 skipped.
	answers := map[string]any{
		"q1": float64(1),
		"q2": "7700 ",
	}

	details := ScoreTest(questionIDs, answers, questions, zerolog.Nop())

	if details.Score != 8 {
		t.Errorf("Score = %d, want 8", details.Score)
	}
	if details.CorrectCount != 2 || details.IncorrectCount != 0 || details.SkippedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/0/1",
			details.CorrectCount, details.IncorrectCount, details.SkippedCount)
	}
	if details.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", details.TotalQuestions)
	}
	if r := details.Results["q3"]; r.Answered || r.Correct {
		t.Errorf("q3 result = %+v, want skipped", r)
	}
}

func TestScoreTestIncorrectPenalty(t *testing.T) {
	questionIDs := []string{"q1", "q2"}
	questions := map[string]model.Question{
		"q1": mcqQuestion("q1", 0),
		"q2": numericalQuestion("q2", "42"),
	}
	answers := map[string]any{
		"q1": float64(3),
		"q2": "41",
	}

	details := ScoreTest(questionIDs, answers, questions, zerolog.Nop())

	if details.Score != -2 {
		t.Errorf("Score = %d, want -2", details.Score)
	}
	if details.IncorrectCount != 2 {
		t.Errorf("IncorrectCount = %d, want 2", details.IncorrectCount)
	}
}

func TestScoreTestNumericalExactMatch(t *testing.T) {
	cases := []struct {
		name    string
		stored  string
		given   any
		correct bool
	}{
		{"exact", "7700", "7700", true},
		{"trimmed", "7700", "  7700  ", true},
		{"different representation", "7700", "7700.0", false},
		{"numeric payload", "7700", float64(7700), true},
		{"wrong value", "7700", "7701", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := ScoreTest(
				[]string{"q"},
				map[string]any{"q": tc.given},
				map[string]model.Question{"q": numericalQuestion("q", tc.stored)},
				zerolog.Nop(),
			)
			got := details.CorrectCount == 1
			if got != tc.correct {
				t.Errorf("correct = %v, want %v", got, tc.correct)
			}
		})
	}
}

func TestScoreTestSkipDetection(t *testing.T) {
	questions := map[string]model.Question{"q": mcqQuestion("q", 1)}

	for name, answers := range map[string]map[string]any{
		"absent":       {},
		"null value":   {"q": nil},
		"empty string": {"q": ""},
	} {
		t.Run(name, func(t *testing.T) {
			details := ScoreTest([]string{"q"}, answers, questions, zerolog.Nop())
			if details.SkippedCount != 1 {
				t.Errorf("SkippedCount = %d, want 1", details.SkippedCount)
			}
			if details.Score != 0 {
				t.Errorf("Score = %d, want 0", details.Score)
			}
		})
	}
}

func TestScoreTestMissingCatalogData(t *testing.T) {
	questionIDs := []string{"q1", "gone"}
	questions := map[string]model.Question{"q1": mcqQuestion("q1", 1)}
	answers := map[string]any{"q1": float64(1), "gone": float64(0)}

	details := ScoreTest(questionIDs, answers, questions, zerolog.Nop())

	// The missing question earns no credit and no penalty but still counts
	// toward the total.
	if details.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", details.TotalQuestions)
	}
	if details.Score != 4 {
		t.Errorf("Score = %d, want 4", details.Score)
	}
	if details.CorrectCount+details.IncorrectCount+details.SkippedCount != 1 {
		t.Errorf("outcome counts should exclude the missing question, got %d/%d/%d",
			details.CorrectCount, details.IncorrectCount, details.SkippedCount)
	}
	if _, ok := details.Results["gone"]; ok {
		t.Error("missing question should have no result entry")
	}
}

func TestScoreTestDeterministic(t *testing.T) {
	questionIDs := []string{"q1", "q2", "q3"}
	questions := map[string]model.Question{
		"q1": mcqQuestion("q1", 1),
		"q2": numericalQuestion("q2", "3.14"),
		"q3": mcqQuestion("q3", 0),
	}
	answers := map[string]any{"q1": float64(1), "q2": "3.14", "q3": float64(2)}

	first := ScoreTest(questionIDs, answers, questions, zerolog.Nop())
	second := ScoreTest(questionIDs, answers, questions, zerolog.Nop())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("scoring is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
