package model

// TestType selects between replaying a past paper and a custom test.
type TestType string

const (
	TestTypePast   TestType = "past"
	TestTypeCustom TestType = "custom"
)

// QuestionKind is the requested question mix for a custom test.
type QuestionKind string

const (
	QuestionKindMCQ       QuestionKind = "mcq"
	QuestionKindNumerical QuestionKind = "numerical"
	QuestionKindBoth      QuestionKind = "both"
)

// TestConfig is the raw client-supplied test request. It is a tagged union:
// test_type picks which of SelectedPaper / CustomConfig is meaningful. The
// struct is stored verbatim on the session for audit and later re-display,
// so field names mirror the client payload exactly.
type TestConfig struct {
	SelectedExam  string        `json:"selectedExam" binding:"required"`
	TestType      TestType      `json:"testType" binding:"required,oneof=past custom"`
	TestName      string        `json:"testName,omitempty" binding:"omitempty,max=120"`
	SelectedPaper *string       `json:"selectedPaper,omitempty"`
	CustomConfig  *CustomConfig `json:"customConfig,omitempty"`
}

// CustomConfig describes a custom test: which subjects and chapters to draw
// from, how many questions per subject, the MCQ/numerical mix, and the
// test duration.
type CustomConfig struct {
	TestName        string             `json:"testName,omitempty"`
	Subjects        []SubjectSelection `json:"selectedSubjects" binding:"omitempty,dive"`
	QuestionType    QuestionKind       `json:"questionType,omitempty"`
	RatioMCQPercent *int               `json:"ratio,omitempty"`
	DurationMinutes int                `json:"duration,omitempty"`
}

// SubjectSelection is one subject's slice of a custom test.
type SubjectSelection struct {
	SubjectID  string   `json:"subjectId"`
	ChapterIDs []string `json:"chapters"`
	Count      int      `json:"count"`
}

// DisplayName resolves the name shown for a session built from this config.
// Falls back through the explicit name, the custom config's name, and
// finally a prefix of the session id.
func (c *TestConfig) DisplayName(sessionID string) string {
	if c != nil && c.TestName != "" {
		return c.TestName
	}
	if c != nil && c.CustomConfig != nil && c.CustomConfig.TestName != "" {
		return c.CustomConfig.TestName
	}
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	return "Test: " + sessionID
}
