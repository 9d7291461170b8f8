package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-group/discover-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func jobColumns() []string {
	return []string{"id", "user_id", "requested_count", "country_filter", "mode",
		"status", "progress", "result", "error", "cancel_requested", "created_at", "updated_at"}
}

func TestPostgresStore_CreateJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO jobs`).
		WithArgs(pgxmock.AnyArg(), "user-1", 10, "Netherlands", "hybrid", "pending", 0,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job, err := s.CreateJob(context.Background(), model.ExtractionJob{
		UserID:         "user-1",
		RequestedCount: 10,
		CountryFilter:  "Netherlands",
		Mode:           "hybrid",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE id = \$1`).
		WithArgs("nonexistent-job").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetJob(context.Background(), "nonexistent-job")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob_WithResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	result, err := json.Marshal(model.JobResult{
		Summary: model.RunSummary{Attempted: 5, Accepted: 3, Rejected: 2},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows(jobColumns()).
			AddRow("job-1", "user-1", 5, "", "hybrid", "completed", 100, result, "", false, now, now))

	job, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.Summary.Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListJobs_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE 1=1 AND status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("processing", 100).
		WillReturnRows(pgxmock.NewRows(jobColumns()).
			AddRow("job-1", "user-1", 5, "", "hybrid", "processing", 40, []byte(nil), "", false, now, now))

	jobs, err := s.ListJobs(context.Background(), JobFilter{Status: model.JobStatusProcessing})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusProcessing, jobs[0].Status)
	assert.Equal(t, 40, jobs[0].Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJobProgress_UsesGreatest(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE jobs SET progress = GREATEST\(progress, \$1\)`).
		WithArgs(40, pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateJobProgress(context.Background(), "job-1", 40)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJobStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE jobs SET status = \$1`).
		WithArgs("failed", "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateJobStatus(context.Background(), "missing", model.JobStatusFailed, "boom")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RequestJobCancel(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE jobs SET cancel_requested = TRUE`).
		WithArgs(pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.RequestJobCancel(context.Background(), "job-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	for _, name := range []string{"Acme Robotics", "Beta Biotech"} {
		mock.ExpectExec(`INSERT INTO leads`).
			WithArgs(pgxmock.AnyArg(), name, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	n, err := s.InsertLeads(context.Background(), []model.Lead{
		{Name: "Acme Robotics", OverallScore: 90, CreatedAt: now, UpdatedAt: now},
		{Name: "Beta Biotech", OverallScore: 75, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLeadScores(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET location_score = \$1, readiness_score = \$2, feasibility_score = \$3, overall_score = \$4`).
		WithArgs(100, 60, 100, 90, "website verified reachable", true, pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateLeadScores(context.Background(), model.Lead{
		ID: "lead-1", LocationScore: 100, ReadinessScore: 60, FeasibilityScore: 100,
		OverallScore: 90, Justification: "website verified reachable", Priority: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLeadScores_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET location_score = \$1`).
		WithArgs(0, 0, 0, 0, "", false, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateLeadScores(context.Background(), model.Lead{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	cols := []string{"id", "name", "city", "website", "description",
		"location_score", "readiness_score", "feasibility_score", "overall_score",
		"justification", "priority", "contact_info", "owner_id", "created_at", "updated_at"}

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE 1=1 AND owner_id = \$1 AND overall_score >= \$2`).
		WithArgs("alice", 80, 100).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("lead-1", "Acme Robotics", "Utrecht", "https://acme.example.com", "desc",
				100, 60, 100, 90, "discovered via scraped", true, []byte(nil), "alice", now, now))

	leads, err := s.ListLeads(context.Background(), LeadFilter{OwnerID: "alice", MinScore: 80})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme Robotics", leads[0].Name)
	assert.True(t, leads[0].Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}
