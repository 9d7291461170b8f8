package model

import "time"

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// RunSummary labels a result with counts so partial output is never presented
// as complete.
type RunSummary struct {
	Attempted int      `json:"attempted"`
	Accepted  int      `json:"accepted"`
	Rejected  int      `json:"rejected"`
	Errors    []string `json:"errors,omitempty"`
}

// JobResult is the final payload written to a completed extraction job.
type JobResult struct {
	Candidates []CandidateRecord `json:"candidates"`
	Summary    RunSummary        `json:"summary"`
}

// ExtractionJob mirrors the external job record. The pipeline writes
// status/progress/result/error to it but does not own its transport.
type ExtractionJob struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	RequestedCount  int        `json:"requested_count"`
	CountryFilter   string     `json:"country_filter,omitempty"`
	Mode            string     `json:"mode,omitempty"`
	Status          JobStatus  `json:"status"`
	Progress        int        `json:"progress"` // 0-100, monotonic while processing
	Result          *JobResult `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"` // set only on failed
	CancelRequested bool       `json:"cancel_requested"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
