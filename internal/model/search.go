package model

// SearchFilters is the filter tree for the search page: every exam with its
// subjects, chapters and papers, so the client can narrow queries without
// further round trips.
type SearchFilters struct {
	Exams             []Exam               `json:"exams"`
	SubjectsByExam    map[string][]Subject `json:"subjectsByExam"`
	ChaptersBySubject map[string][]Chapter `json:"chaptersBySubject"`
	PapersByExam      map[string][]Paper   `json:"papersByExam"`
}
