package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/search"
	"github.com/gcbaptista/go-lexicon/model"
)

const defaultPosLimit = 100

// WordResponse is an entry with its one-line preview.
type WordResponse struct {
	model.WordEntry
	ShortDefinition string                     `json:"short_definition,omitempty"`
	Progress        *model.VocabProgressRecord `json:"progress,omitempty"`
}

func (api *API) wordResponse(entry model.WordEntry) WordResponse {
	resp := WordResponse{WordEntry: entry, ShortDefinition: search.ShortDefinition(entry)}
	if record, ok := api.dict.Progress(entry.Word); ok {
		resp.Progress = &record
	}
	return resp
}

// LookupHandler returns one entry by headword.
func (api *API) LookupHandler(c *gin.Context) {
	word := c.Param("word")
	if result := ValidateWord("word", word); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	entry, err := api.dict.Lookup(word)
	if err != nil {
		SendDomainError(c, "lookup", err)
		return
	}
	c.JSON(http.StatusOK, api.wordResponse(entry))
}

// SearchHandler returns the exact match and related entries for ?q=.
// A miss answers 404 with the spelling suggestions in the body.
func (api *API) SearchHandler(c *gin.Context) {
	query := c.Query("q")
	if result := ValidateWord("q", query); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := api.dict.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, internalErrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":        ErrorCodeWordNotFound,
				"message":     err.Error(),
				"query":       result.Query,
				"suggestions": result.Suggestions,
			})
			return
		}
		SendDomainError(c, "search", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SuggestHandler returns autocomplete candidates for ?q=.
func (api *API) SuggestHandler(c *gin.Context) {
	query := c.Query("q")
	if result := ValidateWord("q", query); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	entries, err := api.dict.Suggest(query)
	if err != nil {
		SendDomainError(c, "suggest", err)
		return
	}

	suggestions := make([]gin.H, len(entries))
	for i, e := range entries {
		suggestions[i] = gin.H{"word": e.Word, "short_definition": search.ShortDefinition(e)}
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "suggestions": suggestions, "total": len(suggestions)})
}

// ByPartOfSpeechHandler lists entries with a part-of-speech key.
func (api *API) ByPartOfSpeechHandler(c *gin.Context) {
	tag := c.Param("tag")
	limit, result := ValidateLimit(c.Query("limit"), defaultPosLimit)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	entries, err := api.dict.ByPartOfSpeech(tag, limit)
	if err != nil {
		SendDomainError(c, "part of speech listing", err)
		return
	}
	if entries == nil {
		entries = []model.WordEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "entries": entries, "total": len(entries)})
}

// ListPartsOfSpeechHandler returns every part-of-speech key with its count.
func (api *API) ListPartsOfSpeechHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parts_of_speech": api.dict.PartsOfSpeech()})
}

// RandomWordHandler returns a random entry.
func (api *API) RandomWordHandler(c *gin.Context) {
	entry, err := api.dict.Random()
	if err != nil {
		SendDomainError(c, "random word", err)
		return
	}
	c.JSON(http.StatusOK, api.wordResponse(entry))
}
