package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/repository"
	"github.com/torqhq/torq-backend/internal/response"
	"github.com/torqhq/torq-backend/internal/service"
)

// CatalogHandler serves the exam taxonomy used by the test builder.
type CatalogHandler struct {
	catalog *service.CatalogService
	log     zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log.With().Str("component", "catalog_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/catalog/exams
func (h *CatalogHandler) ListExams(c *gin.Context) {
	exams, err := h.catalog.ListExams(c.Request.Context())
	if err != nil {
		h.failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GenerationConfig godoc
// GET /api/v1/catalog/exams/:exam_id/config
// Returns the subject/chapter/paper tree the test builder renders.
func (h *CatalogHandler) GenerationConfig(c *gin.Context) {
	examID := c.Param("exam_id")
	if examID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cfg, err := h.catalog.GenerationConfig(c.Request.Context(), examID)
	if err != nil {
		h.failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

func (h *CatalogHandler) failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUpstreamUnavailable)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled catalog error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
