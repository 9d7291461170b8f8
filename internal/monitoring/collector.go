// Package monitoring gathers point-in-time health metrics over recent jobs
// and leads.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of pipeline health.
type MetricsSnapshot struct {
	JobsTotal      int     `json:"jobs_total"`
	JobsCompleted  int     `json:"jobs_completed"`
	JobsFailed     int     `json:"jobs_failed"`
	JobsCancelled  int     `json:"jobs_cancelled"`
	JobsInFlight   int     `json:"jobs_in_flight"`
	JobFailRate    float64 `json:"job_fail_rate"`
	TotalAttempted int     `json:"total_attempted"`
	TotalAccepted  int     `json:"total_accepted"`
	TotalRejected  int     `json:"total_rejected"`
	AvgLeadScore   float64 `json:"avg_lead_score"`
	LeadCount      int     `json:"lead_count"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect builds a snapshot over recent jobs and leads.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{CollectedAt: time.Now().UTC()}

	jobsList, err := c.store.ListJobs(ctx, store.JobFilter{Limit: 1000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list jobs")
	}

	for _, j := range jobsList {
		snap.JobsTotal++
		switch j.Status {
		case model.JobStatusCompleted:
			snap.JobsCompleted++
		case model.JobStatusFailed:
			snap.JobsFailed++
		case model.JobStatusCancelled:
			snap.JobsCancelled++
		default:
			snap.JobsInFlight++
		}
		if j.Result != nil {
			snap.TotalAttempted += j.Result.Summary.Attempted
			snap.TotalAccepted += j.Result.Summary.Accepted
			snap.TotalRejected += j.Result.Summary.Rejected
		}
	}
	if finished := snap.JobsCompleted + snap.JobsFailed; finished > 0 {
		snap.JobFailRate = float64(snap.JobsFailed) / float64(finished)
	}

	leads, err := c.store.ListLeads(ctx, store.LeadFilter{Limit: 1000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list leads")
	}
	snap.LeadCount = len(leads)
	if len(leads) > 0 {
		sum := 0
		for _, l := range leads {
			sum += l.OverallScore
		}
		snap.AvgLeadScore = float64(sum) / float64(len(leads))
	}

	return snap, nil
}
