package model

import (
	"time"
)

// JobStatus represents the status of a background job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType represents the type of job being executed
type JobType string

const (
	JobTypeLoadDictionary   JobType = "load_dictionary"
	JobTypeReloadDictionary JobType = "reload_dictionary"
	JobTypeSaveSnapshot     JobType = "save_snapshot"
)

// Job represents a background dictionary operation
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	Progress    *JobProgress      `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobProgress tracks the progress of a job
type JobProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// GetProgressPercentage returns the progress as a percentage (0-100)
func (jp *JobProgress) GetProgressPercentage() float64 {
	if jp.Total == 0 {
		return 0
	}
	return float64(jp.Current) / float64(jp.Total) * 100
}

// IsTerminal reports whether the job has finished one way or another.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobMetrics is a point-in-time summary of the jobs run so far.
type JobMetrics struct {
	JobsCreated                int64                     `json:"jobs_created"`
	JobsCompleted              int64                     `json:"jobs_completed"`
	JobsFailed                 int64                     `json:"jobs_failed"`
	SuccessRate                float64                   `json:"success_rate"`
	CurrentWorkload            int64                     `json:"current_workload"`
	AverageExecutionTime       time.Duration             `json:"average_execution_time_ns"`
	AverageExecutionTimeByType map[JobType]time.Duration `json:"average_execution_time_by_type_ns"`
	JobsByType                 map[JobType]int64         `json:"jobs_by_type"`
	JobsByStatus               map[JobStatus]int64       `json:"jobs_by_status"`
	LastUpdated                time.Time                 `json:"last_updated"`
}
