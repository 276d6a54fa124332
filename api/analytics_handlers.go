package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler returns the search analytics dashboard.
func (api *API) AnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.dict.SearchAnalytics())
}

// ResetAnalyticsHandler forgets every recorded search.
func (api *API) ResetAnalyticsHandler(c *gin.Context) {
	if err := api.dict.ResetAnalytics(c.Request.Context()); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed, "Failed to reset analytics: "+err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
