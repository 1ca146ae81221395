package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchService implements the read-only question discovery surface: text
// search, the filter tree, and the single-question practice view.
type SearchService struct {
	questions *repository.QuestionRepository
	catalog   *repository.CatalogRepository
	log       zerolog.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(questions *repository.QuestionRepository, catalog *repository.CatalogRepository, log zerolog.Logger) *SearchService {
	return &SearchService{
		questions: questions,
		catalog:   catalog,
		log:       log.With().Str("component", "search_service").Logger(),
	}
}

// Search runs a paginated text search and decorates hits with taxonomy names.
// A blank query is rejected upstream by binding; page and limit are clamped
// here so the repository never sees a degenerate window.
func (s *SearchService) Search(ctx context.Context, p repository.SearchParams) ([]model.QuestionSummary, int64, error) {
	p.Query = strings.TrimSpace(p.Query)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultSearchLimit
	}
	if p.Limit > maxSearchLimit {
		p.Limit = maxSearchLimit
	}

	results, total, err := s.questions.Search(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("search questions: %w", err)
	}
	if len(results) == 0 {
		return []model.QuestionSummary{}, total, nil
	}

	examIDs := make([]string, 0, len(results))
	subjectIDs := make([]string, 0, len(results))
	chapterIDs := make([]string, 0, len(results))
	paperIDs := make([]string, 0, len(results))
	for _, r := range results {
		examIDs = append(examIDs, r.ExamID)
		subjectIDs = append(subjectIDs, r.SubjectID)
		chapterIDs = append(chapterIDs, r.ChapterID)
		if r.PaperID != "" {
			paperIDs = append(paperIDs, r.PaperID)
		}
	}

	names, err := s.catalog.ResolveNames(ctx, examIDs, subjectIDs, chapterIDs, paperIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve taxonomy names: %w", err)
	}

	for i := range results {
		results[i].ExamName = names.Exams[results[i].ExamID]
		results[i].SubjectName = names.Subjects[results[i].SubjectID]
		results[i].ChapterName = names.Chapters[results[i].ChapterID]
		results[i].PaperName = names.Papers[results[i].PaperID]
	}
	return results, total, nil
}

// Filters builds the full filter tree for the search page.
func (s *SearchService) Filters(ctx context.Context) (*model.SearchFilters, error) {
	exams, err := s.catalog.ListExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	filters := &model.SearchFilters{
		Exams:             exams,
		SubjectsByExam:    make(map[string][]model.Subject, len(exams)),
		ChaptersBySubject: make(map[string][]model.Chapter),
		PapersByExam:      make(map[string][]model.Paper, len(exams)),
	}

	examIDs := make([]string, 0, len(exams))
	for _, exam := range exams {
		examIDs = append(examIDs, exam.ID)

		subjects, err := s.catalog.ListSubjects(ctx, exam.ID)
		if err != nil {
			return nil, fmt.Errorf("list subjects for exam %s: %w", exam.ID, err)
		}
		filters.SubjectsByExam[exam.ID] = subjects

		chapters, err := s.catalog.ListChapters(ctx, exam.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("list chapters for exam %s: %w", exam.ID, err)
		}
		for _, ch := range chapters {
			filters.ChaptersBySubject[ch.SubjectID] = append(filters.ChaptersBySubject[ch.SubjectID], ch)
		}
	}

	papers, err := s.catalog.ListPapers(ctx, examIDs)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	for _, p := range papers {
		filters.PapersByExam[p.ExamID] = append(filters.PapersByExam[p.ExamID], p)
	}

	return filters, nil
}

// GetQuestion returns the practice-page view of one question, answers
// included.
func (s *SearchService) GetQuestion(ctx context.Context, id string) (*model.QuestionDetail, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var paperIDs []string
	if q.PaperID != "" {
		paperIDs = []string{q.PaperID}
	}
	names, err := s.catalog.ResolveNames(ctx, []string{q.ExamID}, []string{q.SubjectID}, []string{q.ChapterID}, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve taxonomy names: %w", err)
	}

	return &model.QuestionDetail{
		Question:      *q,
		ExamName:      names.Exams[q.ExamID],
		SubjectName:   names.Subjects[q.SubjectID],
		ChapterName:   names.Chapters[q.ChapterID],
		PaperName:     names.Papers[q.PaperID],
		CorrectOption: q.CorrectOption,
		CorrectValue:  q.CorrectValue,
		Explanation:   q.Explanation,
	}, nil
}
