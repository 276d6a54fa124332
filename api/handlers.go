// Package api exposes the dictionary over HTTP with gin.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-lexicon/internal/notify"
	"github.com/gcbaptista/go-lexicon/model"
	"github.com/gcbaptista/go-lexicon/services"
)

// EventSource streams dictionary notifications to subscribers.
type EventSource interface {
	Subscribe(buffer int) (<-chan notify.Event, func())
}

// API holds dependencies for API handlers.
type API struct {
	dict   services.DictionaryManager
	events EventSource
	log    *slog.Logger
	now    func() time.Time
}

// NewAPI creates a new API handler structure. events may be nil, in which
// case /events is not served.
func NewAPI(dict services.DictionaryManager, events EventSource, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		dict:   dict,
		events: events,
		log:    logger.With("component", "api"),
		now:    time.Now,
	}
}

// SetupRoutes defines all the API routes for the dictionary.
func SetupRoutes(router *gin.Engine, api *API) {
	router.GET("/health", api.HealthCheckHandler)

	dictRoutes := router.Group("/dictionary")
	{
		dictRoutes.GET("/status", api.StatusHandler)          // Readiness and corpus metadata
		dictRoutes.POST("/reload", api.ReloadHandler)         // Refetch the corpus in the background
		dictRoutes.POST("/snapshot", api.SaveSnapshotHandler) // Save the current indexes
		dictRoutes.GET("/pos", api.ListPartsOfSpeechHandler)  // Part-of-speech keys with counts
	}

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", api.ListJobsHandler)
		jobRoutes.GET("/metrics", api.GetJobMetricsHandler)
		jobRoutes.GET("/:jobId", api.GetJobHandler)
	}

	router.GET("/words/:word", api.LookupHandler)
	router.GET("/search", api.SearchHandler)
	router.GET("/suggest", api.SuggestHandler)
	router.GET("/pos/:tag", api.ByPartOfSpeechHandler)
	router.GET("/random", api.RandomWordHandler)

	progressRoutes := router.Group("/progress")
	{
		progressRoutes.POST("/rate", api.RateHandler)
		progressRoutes.GET("/next", api.NextWordHandler)
		progressRoutes.GET("/weak", api.WeakWordsHandler)
		progressRoutes.GET("/weak/random", api.RandomWeakWordHandler)
		progressRoutes.GET("/stats", api.ProgressStatsHandler)
		progressRoutes.GET("/learned", api.LearnedHandler)
		progressRoutes.GET("/:word", api.GetProgressHandler)
		progressRoutes.PATCH("/:word", api.SetQualityHandler)
		progressRoutes.DELETE("/:word", api.RemoveProgressHandler)
	}

	router.GET("/history", api.HistoryHandler)
	router.DELETE("/history", api.ClearHistoryHandler)

	favoriteRoutes := router.Group("/favorites")
	{
		favoriteRoutes.GET("", api.FavoritesHandler)
		favoriteRoutes.DELETE("", api.ClearFavoritesHandler)
		favoriteRoutes.POST("/toggle", api.ToggleFavoriteHandler)
		favoriteRoutes.DELETE("/:word", api.RemoveFavoriteHandler)
	}

	router.GET("/analytics", api.AnalyticsHandler)
	router.DELETE("/analytics", api.ResetAnalyticsHandler)

	if api.events != nil {
		router.GET("/events", api.EventsHandler)
	}
}

// NewRouter builds a gin engine with the standard middleware and every route.
func NewRouter(api *API, maxBodyBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(api.log))
	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(maxBodyBytes))
	SetupRoutes(router, api)
	return router
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-lexicon",
		"state":     api.dict.Status().State,
		"timestamp": api.now().Unix(),
	})
}

// StatusHandler reports readiness. It answers 503 until the dictionary is
// ready so load balancers can use it as a readiness probe.
func (api *API) StatusHandler(c *gin.Context) {
	status := api.dict.Status()
	code := http.StatusOK
	if status.State != model.StateReady {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// ReloadHandler starts a background reload and returns its job ID.
func (api *API) ReloadHandler(c *gin.Context) {
	jobID, err := api.dict.ReloadAsync()
	if err != nil {
		SendJobExecutionError(c, "reload", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Dictionary reload started",
		"job_id":  jobID,
	})
}

// SaveSnapshotHandler writes the index snapshot in the background.
func (api *API) SaveSnapshotHandler(c *gin.Context) {
	jobID, err := api.dict.SaveSnapshotAsync()
	if err != nil {
		SendJobExecutionError(c, "snapshot", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Snapshot started",
		"job_id":  jobID,
	})
}
