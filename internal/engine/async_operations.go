package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcbaptista/go-lexicon/model"
)

// ErrNoJobManager is returned by the async operations when the Dictionary
// was built without a job manager.
var ErrNoJobManager = errors.New("no job manager configured")

// ReloadAsync starts a reload in the background and returns the job ID to
// poll.
func (d *Dictionary) ReloadAsync() (string, error) {
	return d.submit(model.JobTypeReloadDictionary, func(ctx context.Context) error {
		return d.Reload(ctx)
	})
}

// LoadAsync starts the first load in the background.
func (d *Dictionary) LoadAsync() (string, error) {
	return d.submit(model.JobTypeLoadDictionary, func(ctx context.Context) error {
		return d.Load(ctx)
	})
}

// SaveSnapshotAsync writes the snapshot in the background.
func (d *Dictionary) SaveSnapshotAsync() (string, error) {
	return d.submit(model.JobTypeSaveSnapshot, func(context.Context) error {
		return d.SaveSnapshot()
	})
}

func (d *Dictionary) submit(jobType model.JobType, run func(ctx context.Context) error) (string, error) {
	if d.jobs == nil {
		return "", ErrNoJobManager
	}

	jobID, err := d.jobs.Submit(jobType, map[string]string{"operation": string(jobType)}, func(ctx context.Context, job *model.Job) error {
		d.jobs.UpdateJobProgress(job.ID, 0, 1, "started")
		if err := run(ctx); err != nil {
			return err
		}
		d.jobs.UpdateJobProgress(job.ID, 1, 1, fmt.Sprintf("%d headwords", d.Indexes().Len()))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s job: %w", jobType, err)
	}
	return jobID, nil
}

// GetJob returns a background job by ID.
func (d *Dictionary) GetJob(jobID string) (*model.Job, error) {
	if d.jobs == nil {
		return nil, ErrNoJobManager
	}
	return d.jobs.GetJob(jobID)
}

// JobMetrics summarizes the background jobs run so far.
func (d *Dictionary) JobMetrics() model.JobMetrics {
	if d.jobs == nil {
		return model.JobMetrics{}
	}
	return d.jobs.GetMetrics()
}

// ListJobs returns background jobs, optionally filtered by status.
func (d *Dictionary) ListJobs(status *model.JobStatus) []*model.Job {
	if d.jobs == nil {
		return nil
	}
	return d.jobs.ListJobs(status)
}
