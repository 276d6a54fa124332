package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ToggleFavoriteRequest is the body of POST /favorites/toggle.
type ToggleFavoriteRequest struct {
	Word string `json:"word"`
}

// HistoryHandler returns recent searches, newest first.
func (api *API) HistoryHandler(c *gin.Context) {
	history := api.dict.History()
	c.JSON(http.StatusOK, gin.H{"history": history, "total": len(history)})
}

// ClearHistoryHandler forgets every search.
func (api *API) ClearHistoryHandler(c *gin.Context) {
	if err := api.dict.ClearHistory(c.Request.Context()); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed, "Failed to clear history: "+err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// FavoritesHandler returns the favorites, newest first.
func (api *API) FavoritesHandler(c *gin.Context) {
	favorites := api.dict.Favorites()
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "total": len(favorites)})
}

// ToggleFavoriteHandler adds a word to the favorites or removes it.
func (api *API) ToggleFavoriteHandler(c *gin.Context) {
	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateWord("word", req.Word); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	favorite, err := api.dict.ToggleFavorite(c.Request.Context(), req.Word)
	if err != nil {
		SendDomainError(c, "toggle favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"word": req.Word, "favorite": favorite})
}

// RemoveFavoriteHandler drops one favorite.
func (api *API) RemoveFavoriteHandler(c *gin.Context) {
	if err := api.dict.RemoveFavorite(c.Request.Context(), c.Param("word")); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed, "Failed to remove favorite: "+err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearFavoritesHandler removes every favorite.
func (api *API) ClearFavoritesHandler(c *gin.Context) {
	if err := api.dict.ClearFavorites(c.Request.Context()); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed, "Failed to clear favorites: "+err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
