package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/middleware"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/repository"
	"github.com/torqhq/torq-backend/internal/response"
	"github.com/torqhq/torq-backend/internal/service"
	"github.com/torqhq/torq-backend/internal/validator"
)

const defaultRecentLimit = 10

// TestHandler handles the test lifecycle endpoints.
type TestHandler struct {
	tests *service.TestService
	log   zerolog.Logger
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(tests *service.TestService, log zerolog.Logger) *TestHandler {
	return &TestHandler{
		tests: tests,
		log:   log.With().Str("component", "test_handler").Logger(),
	}
}

// GenerateTest godoc
// POST /api/v1/tests/generate
// Resolves the submitted config, assembles a test and persists the session.
func (h *TestHandler) GenerateTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var cfg model.TestConfig
	if fields := validator.Bind(c, &cfg); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, fields, err := h.tests.Generate(c.Request.Context(), claims.UserID(), &cfg)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidConfig, fields)
		return
	}
	if err != nil {
		h.failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// PreviewTest godoc
// POST /api/v1/tests/preview
// Returns the deterministic per-subject question split for a config without
// creating anything.
func (h *TestHandler) PreviewTest(c *gin.Context) {
	var cfg model.TestConfig
	if fields := validator.Bind(c, &cfg); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	preview, fields := h.tests.Preview(&cfg)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidConfig, fields)
		return
	}

	response.Success(c, http.StatusOK, preview)
}

// GetTest godoc
// GET /api/v1/tests/:test_id
// Returns the assembled test payload for the taking page.
func (h *TestHandler) GetTest(c *gin.Context) {
	testID := c.Param("test_id")
	if testID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.tests.GetTest(c.Request.Context(), testID)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// SubmitTest godoc
// POST /api/v1/tests/submit
// Scores a finished attempt and completes the session. A repeat submission
// returns 409 so clients redirect to results.
func (h *TestHandler) SubmitTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.tests.Submit(c.Request.Context(), claims.UserID(), &req)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetResults godoc
// GET /api/v1/tests/:test_id/results
// Returns the scored results page for a completed, owned test.
func (h *TestHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID := c.Param("test_id")
	if testID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.tests.Results(c.Request.Context(), claims.UserID(), testID)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// ListRecent godoc
// GET /api/v1/tests/recent
// Returns the caller's latest test sessions for the dashboard.
func (h *TestHandler) ListRecent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRecentLimit)))
	if limit < 1 || limit > 50 {
		limit = defaultRecentLimit
	}

	tests, err := h.tests.ListRecent(c.Request.Context(), claims.UserID(), limit)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// failFromError maps service and repository sentinels onto HTTP statuses.
func (h *TestHandler) failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, repository.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, repository.ErrUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUpstreamUnavailable)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotCompleted):
		response.Fail(c, http.StatusConflict, response.ErrTestNotCompleted)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled service error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
