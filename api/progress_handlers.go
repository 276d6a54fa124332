package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-lexicon/model"
)

// QualityValue accepts a quality as either a JSON number or a name.
type QualityValue string

func (q *QualityValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*q = QualityValue(strconv.Itoa(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*q = QualityValue(s)
	return nil
}

// RateRequest is the body of POST /progress/rate.
type RateRequest struct {
	Word    string       `json:"word"`
	Quality QualityValue `json:"quality"`
	QueryID string       `json:"query_id,omitempty"`
}

// SetQualityRequest is the body of PATCH /progress/:word.
type SetQualityRequest struct {
	Quality QualityValue `json:"quality"`
	QueryID string       `json:"query_id,omitempty"`
}

// ProgressResponse is a progress record with the stats after the change.
type ProgressResponse struct {
	Word   string                    `json:"word"`
	Record model.VocabProgressRecord `json:"record"`
	Stats  model.ProgressStats       `json:"stats"`
}

// RateHandler records a review of a word.
func (api *API) RateHandler(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	result := ValidateWord("word", req.Word)
	quality, qualityResult := ValidateQuality(string(req.Quality))
	result.Errors = append(result.Errors, qualityResult.Errors...)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	record, stats, err := api.dict.Rate(c.Request.Context(), req.QueryID, req.Word, quality)
	if err != nil {
		SendDomainError(c, "rate", err)
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{Word: req.Word, Record: record, Stats: stats})
}

// SetQualityHandler changes the quality of an already reviewed word without
// counting a review.
func (api *API) SetQualityHandler(c *gin.Context) {
	word := c.Param("word")
	var req SetQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	quality, result := ValidateQuality(string(req.Quality))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	record, stats, err := api.dict.SetQuality(c.Request.Context(), req.QueryID, word, quality)
	if err != nil {
		SendDomainError(c, "set quality", err)
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{Word: word, Record: record, Stats: stats})
}

// GetProgressHandler returns the progress record of one word.
func (api *API) GetProgressHandler(c *gin.Context) {
	word := c.Param("word")
	record, ok := api.dict.Progress(word)
	if !ok {
		SendError(c, http.StatusNotFound, ErrorCodeRecordNotFound, "No progress recorded for '"+word+"'")
		return
	}
	c.JSON(http.StatusOK, gin.H{"word": word, "record": record})
}

// RemoveProgressHandler forgets the progress of one word.
func (api *API) RemoveProgressHandler(c *gin.Context) {
	stats, err := api.dict.RemoveProgress(c.Request.Context(), c.Param("word"))
	if err != nil {
		SendDomainError(c, "remove progress", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// NextWordHandler picks the next word to practise.
func (api *API) NextWordHandler(c *gin.Context) {
	entry, err := api.dict.NextWord()
	if err != nil {
		SendDomainError(c, "next word", err)
		return
	}
	c.JSON(http.StatusOK, api.wordResponse(entry))
}

// WeakWordsHandler lists the words rated weak.
func (api *API) WeakWordsHandler(c *gin.Context) {
	words, err := api.dict.WeakWords()
	if err != nil {
		SendDomainError(c, "weak words", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": words, "total": len(words)})
}

// RandomWeakWordHandler picks one weak word for review.
func (api *API) RandomWeakWordHandler(c *gin.Context) {
	word, entry, err := api.dict.RandomWeakWord()
	if err != nil {
		SendDomainError(c, "random weak word", err)
		return
	}
	resp := gin.H{"word": word}
	if entry != nil {
		resp["entry"] = api.wordResponse(*entry)
	}
	c.JSON(http.StatusOK, resp)
}

// ProgressStatsHandler returns learned and mastered counts.
func (api *API) ProgressStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.dict.ProgressStats())
}

// LearnedHandler lists rated words, most recently reviewed first.
func (api *API) LearnedHandler(c *gin.Context) {
	learned := api.dict.Learned()
	c.JSON(http.StatusOK, gin.H{"words": learned, "total": len(learned)})
}
