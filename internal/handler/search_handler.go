package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
	"github.com/torqhq/torq-backend/internal/response"
	"github.com/torqhq/torq-backend/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// SearchHandler handles question discovery endpoints.
type SearchHandler struct {
	search *service.SearchService
	log    zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search *service.SearchService, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		log:    log.With().Str("component", "search_handler").Logger(),
	}
}

// Search godoc
// GET /api/v1/search?q=...&exams=...&subjects=...&chapters=...&papers=...&types=...&page=1&per_page=20
// Paginated text search across the question bank. Filter params are
// comma-separated lists; per_page is capped at 100.
func (h *SearchHandler) Search(c *gin.Context) {
	fields := map[string]string{}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fields["q"] = "q is required"
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		fields["page"] = "page must be a positive integer"
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if err != nil || perPage < 1 || perPage > maxPerPage {
		fields["per_page"] = fmt.Sprintf("per_page must be between 1 and %d", maxPerPage)
	}

	types, ok := parseQuestionTypes(c.Query("types"))
	if !ok {
		fields["types"] = "types must be a comma-separated list of singleCorrect, numerical"
	}

	if len(fields) > 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	params := repository.SearchParams{
		Query:      query,
		ExamIDs:    splitIDs(c.Query("exams")),
		SubjectIDs: splitIDs(c.Query("subjects")),
		ChapterIDs: splitIDs(c.Query("chapters")),
		PaperIDs:   splitIDs(c.Query("papers")),
		Types:      types,
		Page:       page,
		Limit:      perPage,
	}

	results, total, err := h.search.Search(c.Request.Context(), params)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": results}, pagination)
}

// Filters godoc
// GET /api/v1/search/filters
// Returns the full taxonomy tree the search page filters on.
func (h *SearchHandler) Filters(c *gin.Context) {
	filters, err := h.search.Filters(c.Request.Context())
	if err != nil {
		h.failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, filters)
}

// GetQuestion godoc
// GET /api/v1/questions/:question_id
// Returns a single question with answers for the practice page.
func (h *SearchHandler) GetQuestion(c *gin.Context) {
	id := c.Param("question_id")
	if id == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.search.GetQuestion(c.Request.Context(), id)
	if err != nil {
		h.failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, question)
}

func (h *SearchHandler) failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUpstreamUnavailable)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled search error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseQuestionTypes parses the comma-separated types filter. Returns false
// when a segment is not a known question type.
func parseQuestionTypes(raw string) ([]model.QuestionType, bool) {
	parts := splitIDs(raw)
	if len(parts) == 0 {
		return nil, true
	}
	types := make([]model.QuestionType, 0, len(parts))
	for _, p := range parts {
		t := model.QuestionType(p)
		if t != model.QuestionTypeSingleCorrect && t != model.QuestionTypeNumerical {
			return nil, false
		}
		types = append(types, t)
	}
	return types, true
}

// splitIDs parses a comma-separated id list, dropping empty segments.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
