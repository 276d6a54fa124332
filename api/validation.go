package api

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gcbaptista/go-lexicon/model"
)

const (
	maxWordLength = 100
	maxListLimit  = 500
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateWord checks a headword or query passed by a client.
func ValidateWord(field, word string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(word) == "" {
		result.AddError(field, "Word is required")
		return result
	}
	if utf8.RuneCountInString(word) > maxWordLength {
		result.AddError(field, "Word must be at most "+strconv.Itoa(maxWordLength)+" characters")
	}

	return result
}

// ValidateQuality parses a quality given as a number or a name.
func ValidateQuality(raw string) (model.Quality, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	quality, ok := model.ParseQuality(strings.TrimSpace(raw))
	if !ok {
		result.AddError("quality", "Quality must be 0 (weak), 1 (uncertain) or 2 (mastered)")
	}
	return quality, result
}

// ValidateLimit parses an optional limit query parameter. An empty value
// yields def.
func ValidateLimit(raw string, def int) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if raw == "" {
		return def, result
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		result.AddError("limit", "Limit must be an integer")
		return def, result
	}
	if limit < 1 || limit > maxListLimit {
		result.AddError("limit", "Limit must be between 1 and "+strconv.Itoa(maxListLimit))
		return def, result
	}
	return limit, result
}

// ValidateJobStatus checks an optional job status filter.
func ValidateJobStatus(raw string) (*model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if raw == "" {
		return nil, result
	}

	status := model.JobStatus(raw)
	switch status {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelled:
		return &status, result
	}
	result.AddError("status", "Unknown job status '"+raw+"'")
	return nil, result
}
