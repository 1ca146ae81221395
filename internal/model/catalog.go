package model

// Exam is a top-level exam in the question bank (e.g. an entrance exam).
type Exam struct {
	ID   string `bson:"_id" json:"_id"`
	Name string `bson:"name" json:"name"`
}

// Subject belongs to an exam.
type Subject struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	ExamID string `bson:"exam" json:"-"`
}

// Chapter belongs to a subject within an exam.
type Chapter struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	ExamID    string `bson:"exam" json:"-"`
	SubjectID string `bson:"subject" json:"-"`
}

// Paper is a past exam paper. DurationMinutes is optional in the bank;
// sessions built from papers without one fall back to the default duration.
type Paper struct {
	ID              string `bson:"_id" json:"_id"`
	Name            string `bson:"name" json:"name"`
	ExamID          string `bson:"exam" json:"-"`
	DurationMinutes *int   `bson:"duration,omitempty" json:"duration,omitempty"`
}

// GenerationConfig is the per-exam tree the test-builder UI needs: subjects,
// their chapters, and available past papers.
type GenerationConfig struct {
	Subjects          []Subject            `json:"subjects"`
	ChaptersBySubject map[string][]Chapter `json:"chaptersBySubject"`
	Papers            []Paper              `json:"papers"`
}
