// Package jobs runs discovery jobs against the store, owning the status
// lifecycle and progress reporting.
package jobs

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/discovery"
	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/store"
)

// maxErrorLen bounds the failure message persisted on a job; full detail
// stays in the logs.
const maxErrorLen = 300

// Runner executes extraction jobs.
type Runner struct {
	store store.Store
	orch  *discovery.Orchestrator

	threshold    int
	generatedPct int
}

// NewRunner builds a Runner.
func NewRunner(st store.Store, orch *discovery.Orchestrator) *Runner {
	return &Runner{store: st, orch: orch}
}

// SetQualityGates overrides the acceptance threshold and the hybrid
// generated share applied to every run. Zero values keep the built-in
// defaults.
func (r *Runner) SetQualityGates(threshold, generatedPct int) {
	r.threshold = threshold
	r.generatedPct = generatedPct
}

// Create registers a pending job.
func (r *Runner) Create(ctx context.Context, userID string, count int, country, mode string) (*model.ExtractionJob, error) {
	if count <= 0 {
		return nil, eris.New("jobs: requested count must be positive")
	}
	m, err := discovery.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return r.store.CreateJob(ctx, model.ExtractionJob{
		UserID:         userID,
		RequestedCount: count,
		CountryFilter:  country,
		Mode:           string(m),
	})
}

// Run executes a pending job to a terminal state. Errors in the run are
// recorded on the job; Run itself only fails when the store does.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return eris.Errorf("jobs: job %s already %s", jobID, job.Status)
	}

	if err := r.store.UpdateJobStatus(ctx, jobID, model.JobStatusProcessing, ""); err != nil {
		return err
	}

	mode, _ := discovery.ParseMode(job.Mode)
	candidates, summary, runErr := r.orch.Discover(ctx, discovery.Options{
		Limit:        job.RequestedCount,
		Country:      job.CountryFilter,
		Mode:         mode,
		Threshold:    r.threshold,
		GeneratedPct: r.generatedPct,
		Progress: func(pct int) {
			if err := r.store.UpdateJobProgress(ctx, jobID, pct); err != nil {
				zap.L().Warn("progress write failed", zap.String("job_id", jobID), zap.Error(err))
			}
		},
		CancelRequested: func() bool {
			j, err := r.store.GetJob(ctx, jobID)
			if err != nil {
				return false
			}
			return j.CancelRequested
		},
	})

	switch {
	case errors.Is(runErr, discovery.ErrCancelled):
		return r.store.UpdateJobStatus(ctx, jobID, model.JobStatusCancelled, "")
	case runErr != nil:
		msg := runErr.Error()
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen]
		}
		zap.L().Error("job failed", zap.String("job_id", jobID), zap.Error(runErr))
		return r.store.UpdateJobStatus(ctx, jobID, model.JobStatusFailed, msg)
	}

	return r.store.UpdateJobResult(ctx, jobID, &model.JobResult{
		Candidates: candidates,
		Summary:    *summary,
	})
}

// Cancel flags a job for cancellation. Terminal jobs are left untouched.
func (r *Runner) Cancel(ctx context.Context, jobID string) error {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return eris.Errorf("jobs: job %s already %s", jobID, job.Status)
	}
	if job.Status == model.JobStatusPending {
		// Never started; cancel takes effect immediately.
		return r.store.UpdateJobStatus(ctx, jobID, model.JobStatusCancelled, "")
	}
	return r.store.RequestJobCancel(ctx, jobID)
}
