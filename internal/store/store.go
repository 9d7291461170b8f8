// Package store persists extraction jobs and leads behind a driver-neutral
// interface with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/internal/model"
)

// ErrNotFound is returned for lookups of unknown records.
var ErrNotFound = eris.New("store: not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	UserID string          `json:"user_id,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	OwnerID  string `json:"owner_id,omitempty"`
	MinScore int    `json:"min_score,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines persistence for the discovery pipeline.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, job model.ExtractionJob) (*model.ExtractionJob, error)
	GetJob(ctx context.Context, jobID string) (*model.ExtractionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	UpdateJobProgress(ctx context.Context, jobID string, progress int) error
	UpdateJobResult(ctx context.Context, jobID string, result *model.JobResult) error
	RequestJobCancel(ctx context.Context, jobID string) error

	// Leads
	InsertLeads(ctx context.Context, leads []model.Lead) (int, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLeadScores(ctx context.Context, lead model.Lead) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
