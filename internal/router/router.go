package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/handler"
	"github.com/torqhq/torq-backend/internal/identity"
	"github.com/torqhq/torq-backend/internal/middleware"
	"github.com/torqhq/torq-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Test     *handler.TestHandler
	Search   *handler.SearchHandler
	Catalog  *handler.CatalogHandler
	Activity *handler.ActivityHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	verifier *identity.Verifier,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the generation endpoint (30 requests per minute per IP):
	// sampling hits the question bank hardest.
	generateLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Catalog Group (Public, Cached) ─────────────────────────────
	// Taxonomy is the same for every user; let intermediaries cache it.
	catalogAPI := router.Group("/api/v1/catalog")
	catalogAPI.Use(middleware.CacheControl(300))
	{
		catalogAPI.GET("/exams", handlers.Catalog.ListExams)
		catalogAPI.GET("/exams/:exam_id/config", handlers.Catalog.GenerationConfig)
	}

	// ─── 2. Search Group (Public) ──────────────────────────────────────
	searchAPI := router.Group("/api/v1/search")
	{
		searchAPI.GET("", handlers.Search.Search)
		searchAPI.GET("/filters", middleware.CacheControl(300), handlers.Search.Filters)
	}

	// ─── 3. Test Group (Authenticated) ─────────────────────────────────
	testAPI := router.Group("/api/v1/tests")
	testAPI.Use(middleware.RequireUser(verifier))
	{
		testAPI.POST("/generate", generateLimiter.Middleware(), handlers.Test.GenerateTest)
		testAPI.POST("/preview", handlers.Test.PreviewTest)
		testAPI.POST("/submit", handlers.Test.SubmitTest)
		testAPI.GET("/recent", handlers.Test.ListRecent)
		testAPI.GET("/:test_id", handlers.Test.GetTest)
		testAPI.GET("/:test_id/results", handlers.Test.GetResults)
	}

	// ─── 4. Question Group (Authenticated) ─────────────────────────────
	// Answers are included in the detail view, so it sits behind auth.
	questionAPI := router.Group("/api/v1/questions")
	questionAPI.Use(middleware.RequireUser(verifier))
	{
		questionAPI.GET("/:question_id", handlers.Search.GetQuestion)
	}

	// ─── 5. Activity Group (Authenticated) ─────────────────────────────
	activityAPI := router.Group("/api/v1/activity")
	activityAPI.Use(middleware.RequireUser(verifier))
	{
		activityAPI.POST("/attempts", handlers.Activity.LogAttempt)
		activityAPI.GET("/recent", handlers.Activity.ListRecent)
	}

	return router
}
