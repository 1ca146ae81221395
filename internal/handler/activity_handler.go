package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/middleware"
	"github.com/torqhq/torq-backend/internal/model"
	"github.com/torqhq/torq-backend/internal/response"
	"github.com/torqhq/torq-backend/internal/service"
	"github.com/torqhq/torq-backend/internal/validator"
)

// ActivityHandler serves the activity feed and accepts practice attempts.
type ActivityHandler struct {
	activity *service.ActivityService
	log      zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activity *service.ActivityService, log zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		log:      log.With().Str("component", "activity_handler").Logger(),
	}
}

// LogAttempt godoc
// POST /api/v1/activity/attempts
// Records a single-question practice attempt. Accepted as soon as it is
// queued; persistence is asynchronous.
func (h *ActivityHandler) LogAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.LogAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.activity.LogQuestionAttempt(c.Request.Context(), claims.UserID(), &req); err != nil {
		h.log.Error().Err(err).Msg("Log question attempt failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "queued"})
}

// ListRecent godoc
// GET /api/v1/activity/recent
// Returns the caller's latest persisted activity entries.
func (h *ActivityHandler) ListRecent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.activity.ListRecent(c.Request.Context(), claims.UserID(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("List recent activity failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"activities": records})
}
