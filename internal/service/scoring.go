package service

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/model"
)

// Fixed scoring weights. Not configurable per session.
const (
	pointsCorrect   = 4
	pointsIncorrect = -1
)

// ScoreTest recomputes correctness for every question in a session's fixed
// questionIds sequence against the submitted answers and the stored correct
// answers. The computation is pure: identical inputs always yield identical
// output, which lets results pages be re-derived without re-scoring.
//
// Questions whose catalog data is missing are logged and excluded from
// correctness credit entirely rather than aborting the pass; they still
// count toward TotalQuestions.
func ScoreTest(questionIDs []string, answers map[string]any, questions map[string]model.Question, log zerolog.Logger) model.ScoreDetails {
	details := model.ScoreDetails{
		TotalQuestions: len(questionIDs),
		Results:        make(map[string]model.QuestionResult, len(questionIDs)),
	}

	for _, qid := range questionIDs {
		q, ok := questions[qid]
		if !ok {
			log.Warn().Str("question_id", qid).Msg("Correct answer data missing, excluding from score")
			continue
		}

		raw, submitted := answers[qid]
		value, answered := coerceAnswer(raw)
		if !submitted || !answered {
			details.SkippedCount++
			details.Results[qid] = model.QuestionResult{Answered: false, Correct: false}
			continue
		}

		correct := false
		switch q.Type {
		case model.QuestionTypeSingleCorrect:
			idx, err := strconv.Atoi(strings.TrimSpace(value))
			correct = err == nil && len(q.CorrectOption) > 0 && idx == q.CorrectOption[0]
		case model.QuestionTypeNumerical:
			// Exact trimmed-string match. No numeric tolerance: "7700" and
			// "7700.0" are different answers.
			correct = strings.TrimSpace(value) == strings.TrimSpace(q.CorrectValue)
		default:
			log.Warn().Str("question_id", qid).Str("type", string(q.Type)).Msg("Unknown question type, excluding from score")
			continue
		}

		if correct {
			details.CorrectCount++
			details.Score += pointsCorrect
			details.Results[qid] = model.QuestionResult{Answered: true, Correct: true}
		} else {
			details.IncorrectCount++
			details.Score += pointsIncorrect
			details.Results[qid] = model.QuestionResult{Answered: true, Correct: false}
		}
	}

	return details
}

// coerceAnswer normalizes a raw submitted value to its string form. The
// second return is false for skipped answers (absent, null, or empty
// string). JSON numbers arrive as float64 and are rendered without a
// trailing fractional part when integral.
func coerceAnswer(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
