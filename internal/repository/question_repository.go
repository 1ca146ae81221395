package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torqhq/torq-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionFilter narrows random sampling to one exam/subject/type slice of
// the pool across a set of chapters.
type QuestionFilter struct {
	ExamID     string
	SubjectID  string
	ChapterIDs []string
	Type       model.QuestionType
}

// SearchParams describes a paginated question search.
type SearchParams struct {
	Query      string
	ExamIDs    []string
	SubjectIDs []string
	ChapterIDs []string
	PaperIDs   []string
	Types      []model.QuestionType
	Page       int
	Limit      int
}

// QuestionRepository reads the question bank. The collection is owned by the
// content pipeline; this service never writes to it.
type QuestionRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewQuestionRepository creates a QuestionRepository over the catalog database.
func NewQuestionRepository(db *mongo.Database, timeout time.Duration) *QuestionRepository {
	return &QuestionRepository{col: db.Collection("questions"), timeout: timeout}
}

// FindIDsByPaper returns all question ids belonging to a past paper, in the
// bank's stored order. An unknown paper yields an empty slice; the caller
// decides whether that is an error.
func (r *QuestionRepository) FindIDsByPaper(ctx context.Context, paperID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"paper_id": paperID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, catalogErr("find paper questions", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, catalogErr("decode paper question", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, catalogErr("iterate paper questions", cur.Err())
}

// SampleRandom draws up to count distinct question ids matching the filter,
// uniformly at random, using the store's native $sample stage. If fewer than
// count questions match, all matches are returned; under-fill is not an error.
func (r *QuestionRepository) SampleRandom(ctx context.Context, f QuestionFilter, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	match := bson.M{
		"exam":    f.ExamID,
		"subject": f.SubjectID,
		"type":    f.Type,
	}
	if len(f.ChapterIDs) > 0 {
		match["chapter"] = bson.M{"$in": f.ChapterIDs}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, catalogErr("sample questions", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, catalogErr("decode sampled question", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, catalogErr("iterate sampled questions", cur.Err())
}

// FetchByIDs batch-fetches questions by id, keyed by id. Missing ids are
// simply absent from the map; callers tolerate partial results.
func (r *QuestionRepository) FetchByIDs(ctx context.Context, ids []string) (map[string]model.Question, error) {
	if len(ids) == 0 {
		return map[string]model.Question{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, catalogErr("fetch questions", err)
	}
	defer cur.Close(ctx)

	questions := make(map[string]model.Question, len(ids))
	for cur.Next(ctx) {
		var q model.Question
		if err := cur.Decode(&q); err != nil {
			return nil, catalogErr("decode question", err)
		}
		questions[q.ID] = q
	}
	return questions, catalogErr("iterate questions", cur.Err())
}

// GetByID fetches a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*model.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var q model.Question
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, catalogErr("get question", err)
	}
	return &q, nil
}

// Search runs a paginated case-insensitive text search across question text,
// answers and options, optionally narrowed by taxonomy filters.
func (r *QuestionRepository) Search(ctx context.Context, p SearchParams) ([]model.QuestionSummary, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"$or": bson.A{
			bson.M{"question": bson.M{"$regex": p.Query, "$options": "i"}},
			bson.M{"answer": bson.M{"$regex": p.Query, "$options": "i"}},
			bson.M{"options": bson.M{"$regex": p.Query, "$options": "i"}},
		},
	}
	if len(p.ExamIDs) > 0 {
		filter["exam"] = bson.M{"$in": p.ExamIDs}
	}
	if len(p.SubjectIDs) > 0 {
		filter["subject"] = bson.M{"$in": p.SubjectIDs}
	}
	if len(p.ChapterIDs) > 0 {
		filter["chapter"] = bson.M{"$in": p.ChapterIDs}
	}
	if len(p.PaperIDs) > 0 {
		filter["paper_id"] = bson.M{"$in": p.PaperIDs}
	}
	if len(p.Types) > 0 {
		filter["type"] = bson.M{"$in": p.Types}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, catalogErr("count search results", err)
	}

	skip := int64((p.Page - 1) * p.Limit)
	cur, err := r.col.Find(ctx, filter, options.Find().
		SetProjection(bson.M{
			"_id": 1, "type": 1, "question": 1, "exam": 1,
			"subject": 1, "chapter": 1, "paper_id": 1, "level": 1,
		}).
		SetSkip(skip).
		SetLimit(int64(p.Limit)),
	)
	if err != nil {
		return nil, 0, catalogErr("search questions", err)
	}
	defer cur.Close(ctx)

	var results []model.QuestionSummary
	for cur.Next(ctx) {
		var s model.QuestionSummary
		if err := cur.Decode(&s); err != nil {
			return nil, 0, catalogErr("decode search result", err)
		}
		results = append(results, s)
	}
	return results, total, catalogErr("iterate search results", cur.Err())
}

// catalogErr maps driver errors onto the repository sentinels. A nil err
// passes through so it can wrap trailing cursor checks.
func catalogErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
