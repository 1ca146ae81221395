package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
)

// Catalog data changes on bank ingestion, not per request, so a short cache
// absorbs nearly all reads without a busting mechanism.
const catalogCacheTTL = 10 * time.Minute

// CatalogService serves the exam taxonomy that the test-builder UI needs,
// with a Redis cache in front of the question bank.
type CatalogService struct {
	repo *repository.CatalogRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo *repository.CatalogRepository, rdb *redis.Client, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListExams returns all exams in the bank.
func (s *CatalogService) ListExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	if s.cacheGet(ctx, config.CacheKey.ExamListKey(), &exams) {
		return exams, nil
	}

	exams, err := s.repo.ListExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	s.cacheSet(ctx, config.CacheKey.ExamListKey(), exams)
	return exams, nil
}

// GenerationConfig returns the subject/chapter/paper tree for one exam.
func (s *CatalogService) GenerationConfig(ctx context.Context, examID string) (*model.GenerationConfig, error) {
	key := config.CacheKey.GenerationConfigKey(examID)

	var cached model.GenerationConfig
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	subjects, err := s.repo.ListSubjects(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if len(subjects) == 0 {
		// Distinguish an unknown exam from an empty one.
		if _, err := s.examExists(ctx, examID); err != nil {
			return nil, err
		}
	}

	subjectIDs := make([]string, 0, len(subjects))
	for _, subj := range subjects {
		subjectIDs = append(subjectIDs, subj.ID)
	}

	chapters, err := s.repo.ListChapters(ctx, examID, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	papers, err := s.repo.ListPapers(ctx, []string{examID})
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}

	cfg := &model.GenerationConfig{
		Subjects:          subjects,
		ChaptersBySubject: make(map[string][]model.Chapter, len(subjects)),
		Papers:            papers,
	}
	for _, ch := range chapters {
		cfg.ChaptersBySubject[ch.SubjectID] = append(cfg.ChaptersBySubject[ch.SubjectID], ch)
	}

	s.cacheSet(ctx, key, cfg)
	return cfg, nil
}

// examExists returns ErrNotFound for exam ids absent from the bank.
func (s *CatalogService) examExists(ctx context.Context, examID string) (bool, error) {
	exams, err := s.ListExams(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range exams {
		if e.ID == examID {
			return true, nil
		}
	}
	return false, fmt.Errorf("exam %s: %w", examID, repository.ErrNotFound)
}

// cacheGet loads key into dest; any Redis or decode failure is treated as a
// miss so the bank stays the source of truth.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache decode failed")
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache encode failed")
		return
	}
	if err := s.rdb.Set(ctx, key, raw, catalogCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}
