package model

// QuestionType enumerates catalog question kinds.
type QuestionType string

const (
	QuestionTypeSingleCorrect QuestionType = "singleCorrect"
	QuestionTypeNumerical     QuestionType = "numerical"
)

// Question is an immutable catalog entity from the question bank. The core
// never mutates questions; correct answers and explanations stay server-side
// and are only exposed on the results view of a completed test.
type Question struct {
	ID            string       `bson:"_id" json:"_id"`
	ExamID        string       `bson:"exam" json:"exam"`
	SubjectID     string       `bson:"subject" json:"subject"`
	ChapterID     string       `bson:"chapter" json:"chapter"`
	PaperID       string       `bson:"paper_id,omitempty" json:"paper_id,omitempty"`
	Type          QuestionType `bson:"type" json:"type"`
	Text          string       `bson:"question" json:"question"`
	Options       []string     `bson:"options,omitempty" json:"options,omitempty"`
	CorrectOption []int        `bson:"correct_option,omitempty" json:"-"`
	CorrectValue  string       `bson:"correct_value,omitempty" json:"-"`
	Explanation   string       `bson:"explanation,omitempty" json:"-"`
	Level         string       `bson:"level,omitempty" json:"level,omitempty"`
}

// QuestionSummary is a search hit with resolved taxonomy names.
type QuestionSummary struct {
	ID          string       `bson:"_id" json:"_id"`
	Type        QuestionType `bson:"type" json:"type"`
	Text        string       `bson:"question" json:"question"`
	ExamID      string       `bson:"exam" json:"exam"`
	SubjectID   string       `bson:"subject" json:"subject"`
	ChapterID   string       `bson:"chapter" json:"chapter"`
	PaperID     string       `bson:"paper_id,omitempty" json:"paper_id,omitempty"`
	Level       string       `bson:"level,omitempty" json:"level,omitempty"`
	ExamName    string       `bson:"-" json:"exam_name"`
	SubjectName string       `bson:"-" json:"subject_name"`
	ChapterName string       `bson:"-" json:"chapter_name"`
	PaperName   string       `bson:"-" json:"paper_name"`
}

// QuestionDetail is a full single-question view (practice page) with
// resolved names. Unlike test payloads it includes the answer fields, since
// the practice page reveals them after an attempt.
type QuestionDetail struct {
	Question    `bson:",inline"`
	ExamName    string `bson:"-" json:"exam_name"`
	SubjectName string `bson:"-" json:"subject_name"`
	ChapterName string `bson:"-" json:"chapter_name"`
	PaperName   string `bson:"-" json:"paper_name"`
	// Answer fields are re-exposed here on purpose.
	CorrectOption []int  `bson:"-" json:"correct_option,omitempty"`
	CorrectValue  string `bson:"-" json:"correct_value,omitempty"`
	Explanation   string `bson:"-" json:"explanation,omitempty"`
}

// TestQuestion is the answer-free question shape served inside an assembled
// test payload. OriginalOrder is the question's index in the session's fixed
// questionIds sequence; the palette groups by subject name but keeps this
// index for intra-subject ordering.
type TestQuestion struct {
	ID            string       `json:"_id"`
	Text          string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	Type          QuestionType `json:"type"`
	Level         string       `json:"level,omitempty"`
	SubjectID     string       `json:"subject"`
	OriginalOrder int          `json:"originalOrder"`
	ExamName      string       `json:"exam_name"`
	SubjectName   string       `json:"subject_name"`
	ChapterName   string       `json:"chapter_name"`
}
