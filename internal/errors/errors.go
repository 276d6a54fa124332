package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrUnavailable is returned when no corpus could be loaded at all: every
	// partition and the legacy fallback failed, or nothing was loaded yet.
	ErrUnavailable = errors.New("dictionary unavailable")

	// ErrNotFound is a normal negative search result, not a failure.
	ErrNotFound = errors.New("word not found")

	// ErrNoWeakWords is returned when no word is currently rated weak.
	ErrNoWeakWords = errors.New("no weak words")

	// ErrEmptyCorpus is returned when a selection is requested from an empty corpus.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrAllPartitionsFailed is returned when no corpus partition could be fetched.
	ErrAllPartitionsFailed = errors.New("all corpus partitions failed")

	// ErrPartitionFetch is matched by every PartitionFetchError.
	ErrPartitionFetch = errors.New("partition fetch failed")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery is returned for empty or whitespace-only queries
	ErrInvalidQuery = errors.New("invalid query")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrRecordNotFound is returned when a progress record does not exist
	ErrRecordNotFound = errors.New("progress record not found")
)

// PartitionFetchError describes a single corpus partition that could not be
// fetched or parsed. The loader recovers from it by dropping the partition.
type PartitionFetchError struct {
	Partition string
	Err       error
}

func (e *PartitionFetchError) Error() string {
	return fmt.Sprintf("partition '%s': %v", e.Partition, e.Err)
}

func (e *PartitionFetchError) Is(target error) bool {
	return target == ErrPartitionFetch
}

func (e *PartitionFetchError) Unwrap() error {
	return e.Err
}

// NewPartitionFetchError creates a new PartitionFetchError
func NewPartitionFetchError(partition string, err error) *PartitionFetchError {
	return &PartitionFetchError{Partition: partition, Err: err}
}

// AllPartitionsFailedError aggregates the per-partition failures of a load.
type AllPartitionsFailedError struct {
	Failures []*PartitionFetchError
}

func (e *AllPartitionsFailedError) Error() string {
	return fmt.Sprintf("all %d corpus partitions failed", len(e.Failures))
}

func (e *AllPartitionsFailedError) Is(target error) bool {
	return target == ErrAllPartitionsFailed
}

// UnavailableError wraps the reason the dictionary could not be loaded.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrUnavailable.Error(), e.Cause)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(cause error) *UnavailableError {
	return &UnavailableError{Cause: cause}
}

// WordNotFoundError carries the query that produced no results
type WordNotFoundError struct {
	Query string
}

func (e *WordNotFoundError) Error() string {
	return fmt.Sprintf("no entry matches '%s'", e.Query)
}

func (e *WordNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewWordNotFoundError creates a new WordNotFoundError
func NewWordNotFoundError(query string) *WordNotFoundError {
	return &WordNotFoundError{Query: query}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
