package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-lexicon/model"
)

// recentDurations is how many execution times are kept per job type.
const recentDurations = 100

// JobMetrics counts jobs by type and status and tracks execution times.
type JobMetrics struct {
	mu             sync.RWMutex
	created        int64
	completed      int64
	failed         int64
	totalExecution time.Duration
	byType         map[model.JobType]int64
	byStatus       map[model.JobStatus]int64
	recentByType   map[model.JobType][]time.Duration
	lastUpdated    time.Time
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		byType:       make(map[model.JobType]int64),
		byStatus:     make(map[model.JobStatus]int64),
		recentByType: make(map[model.JobType][]time.Duration),
		lastUpdated:  time.Now(),
	}
}

func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.byType[jobType]++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

// RecordJobStatusChange moves one job from oldStatus to newStatus.
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	m.totalExecution += executionTime

	recent := append(m.recentByType[jobType], executionTime)
	if len(recent) > recentDurations {
		recent = recent[len(recent)-recentDurations:]
	}
	m.recentByType[jobType] = recent
	m.lastUpdated = time.Now()
}

func (m *JobMetrics) RecordJobFailed(model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	m.lastUpdated = time.Now()
}

// GetMetrics returns a copy safe to serialise.
func (m *JobMetrics) GetMetrics() model.JobMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[model.JobType]int64, len(m.byType))
	for k, v := range m.byType {
		byType[k] = v
	}
	byStatus := make(map[model.JobStatus]int64, len(m.byStatus))
	for k, v := range m.byStatus {
		byStatus[k] = v
	}

	avgByType := make(map[model.JobType]time.Duration, len(m.recentByType))
	for jobType := range m.recentByType {
		avgByType[jobType] = m.averageByTypeLocked(jobType)
	}

	var avg time.Duration
	if m.completed > 0 {
		avg = m.totalExecution / time.Duration(m.completed)
	}

	return model.JobMetrics{
		JobsCreated:                m.created,
		JobsCompleted:              m.completed,
		JobsFailed:                 m.failed,
		SuccessRate:                m.successRateLocked(),
		CurrentWorkload:            m.workloadLocked(),
		AverageExecutionTime:       avg,
		AverageExecutionTimeByType: avgByType,
		JobsByType:                 byType,
		JobsByStatus:               byStatus,
		LastUpdated:                m.lastUpdated,
	}
}

// AverageExecutionTimeByType averages the most recent runs of jobType.
func (m *JobMetrics) AverageExecutionTimeByType(jobType model.JobType) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.averageByTypeLocked(jobType)
}

func (m *JobMetrics) averageByTypeLocked(jobType model.JobType) time.Duration {
	times := m.recentByType[jobType]
	if len(times) == 0 {
		return 0
	}
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workloadLocked()
}

func (m *JobMetrics) workloadLocked() int64 {
	return m.byStatus[model.JobStatusPending] + m.byStatus[model.JobStatusRunning]
}

// successRateLocked is 1 until some job has finished.
func (m *JobMetrics) successRateLocked() float64 {
	finished := m.completed + m.failed
	if finished == 0 {
		return 1.0
	}
	return float64(m.completed) / float64(finished)
}
