package repository

import (
	"context"
	"errors"
	"time"

	"github.com/torqhq/torq-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository reads the question bank's taxonomy collections
// (exams, subjects, chapters, papers).
type CatalogRepository struct {
	exams    *mongo.Collection
	subjects *mongo.Collection
	chapters *mongo.Collection
	papers   *mongo.Collection
	timeout  time.Duration
}

// NewCatalogRepository creates a CatalogRepository over the catalog database.
func NewCatalogRepository(db *mongo.Database, timeout time.Duration) *CatalogRepository {
	return &CatalogRepository{
		exams:    db.Collection("exams"),
		subjects: db.Collection("subjects"),
		chapters: db.Collection("chapters"),
		papers:   db.Collection("papers"),
		timeout:  timeout,
	}
}

// ListExams returns all exams in the bank.
func (r *CatalogRepository) ListExams(ctx context.Context) ([]model.Exam, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.exams.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1, "name": 1}))
	if err != nil {
		return nil, catalogErr("list exams", err)
	}
	defer cur.Close(ctx)

	var exams []model.Exam
	for cur.Next(ctx) {
		var e model.Exam
		if err := cur.Decode(&e); err != nil {
			return nil, catalogErr("decode exam", err)
		}
		exams = append(exams, e)
	}
	return exams, catalogErr("iterate exams", cur.Err())
}

// ListSubjects returns all subjects for an exam.
func (r *CatalogRepository) ListSubjects(ctx context.Context, examID string) ([]model.Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.subjects.Find(ctx, bson.M{"exam": examID})
	if err != nil {
		return nil, catalogErr("list subjects", err)
	}
	defer cur.Close(ctx)

	var subjects []model.Subject
	for cur.Next(ctx) {
		var s model.Subject
		if err := cur.Decode(&s); err != nil {
			return nil, catalogErr("decode subject", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, catalogErr("iterate subjects", cur.Err())
}

// ListChapters returns chapters for an exam, optionally narrowed to a set of
// subjects.
func (r *CatalogRepository) ListChapters(ctx context.Context, examID string, subjectIDs []string) ([]model.Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"exam": examID}
	if len(subjectIDs) > 0 {
		filter["subject"] = bson.M{"$in": subjectIDs}
	}

	cur, err := r.chapters.Find(ctx, filter)
	if err != nil {
		return nil, catalogErr("list chapters", err)
	}
	defer cur.Close(ctx)

	var chapters []model.Chapter
	for cur.Next(ctx) {
		var c model.Chapter
		if err := cur.Decode(&c); err != nil {
			return nil, catalogErr("decode chapter", err)
		}
		chapters = append(chapters, c)
	}
	return chapters, catalogErr("iterate chapters", cur.Err())
}

// ListPapers returns past papers for a set of exams.
func (r *CatalogRepository) ListPapers(ctx context.Context, examIDs []string) ([]model.Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.papers.Find(ctx, bson.M{"exam": bson.M{"$in": examIDs}})
	if err != nil {
		return nil, catalogErr("list papers", err)
	}
	defer cur.Close(ctx)

	var papers []model.Paper
	for cur.Next(ctx) {
		var p model.Paper
		if err := cur.Decode(&p); err != nil {
			return nil, catalogErr("decode paper", err)
		}
		papers = append(papers, p)
	}
	return papers, catalogErr("iterate papers", cur.Err())
}

// DefaultPaperDurationMinutes applies when a paper has no stored duration.
const DefaultPaperDurationMinutes = 180

// GetPaperDuration returns a paper's duration in minutes, falling back to
// the default when the paper is unknown or has no stored duration.
func (r *CatalogRepository) GetPaperDuration(ctx context.Context, paperID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p model.Paper
	err := r.papers.FindOne(ctx, bson.M{"_id": paperID},
		options.FindOne().SetProjection(bson.M{"duration": 1}),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DefaultPaperDurationMinutes, nil
		}
		return 0, catalogErr("get paper duration", err)
	}
	if p.DurationMinutes == nil || *p.DurationMinutes <= 0 {
		return DefaultPaperDurationMinutes, nil
	}
	return *p.DurationMinutes, nil
}

// NameMaps resolves id → name for the given taxonomy ids in one pass per
// collection. Used to decorate search hits and test payloads without
// re-querying per question.
type NameMaps struct {
	Exams    map[string]string
	Subjects map[string]string
	Chapters map[string]string
	Papers   map[string]string
}

// ResolveNames fetches names for the supplied id sets. Empty sets skip their
// collection entirely.
func (r *CatalogRepository) ResolveNames(ctx context.Context, examIDs, subjectIDs, chapterIDs, paperIDs []string) (*NameMaps, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	maps := &NameMaps{
		Exams:    map[string]string{},
		Subjects: map[string]string{},
		Chapters: map[string]string{},
		Papers:   map[string]string{},
	}

	collect := func(col *mongo.Collection, ids []string, dst map[string]string) error {
		if len(ids) == 0 {
			return nil
		}
		cur, err := col.Find(ctx,
			bson.M{"_id": bson.M{"$in": ids}},
			options.Find().SetProjection(bson.M{"_id": 1, "name": 1}),
		)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var doc struct {
				ID   string `bson:"_id"`
				Name string `bson:"name"`
			}
			if err := cur.Decode(&doc); err != nil {
				return err
			}
			dst[doc.ID] = doc.Name
		}
		return cur.Err()
	}

	if err := collect(r.exams, examIDs, maps.Exams); err != nil {
		return nil, catalogErr("resolve exam names", err)
	}
	if err := collect(r.subjects, subjectIDs, maps.Subjects); err != nil {
		return nil, catalogErr("resolve subject names", err)
	}
	if err := collect(r.chapters, chapterIDs, maps.Chapters); err != nil {
		return nil, catalogErr("resolve chapter names", err)
	}
	if err := collect(r.papers, paperIDs, maps.Papers); err != nil {
		return nil, catalogErr("resolve paper names", err)
	}
	return maps, nil
}
