package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-group/discover-cli/internal/discovery"
	"github.com/scout-group/discover-cli/internal/jobs"
	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/monitoring"
	"github.com/scout-group/discover-cli/internal/store"
)

type noopVerifier struct{}

func (noopVerifier) VerifyAll(context.Context, []model.CandidateRecord) {}

func testServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	orch := discovery.New(nil, nil, nil, noopVerifier{})
	e := &env{
		Store:  st,
		Runner: jobs.NewRunner(st, orch),
	}
	srv := httptest.NewServer(newRouter(context.Background(), e))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestServeHealth(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeMetrics(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap monitoring.MetricsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestServeCreateJob(t *testing.T) {
	srv, st := testServer(t)

	resp, err := http.Post(srv.URL+"/jobs", "application/json",
		strings.NewReader(`{"user_id":"alice","count":5,"mode":"hybrid"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job model.ExtractionJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "alice", job.UserID)

	stored, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.RequestedCount)
}

func TestServeCreateJobValidation(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/jobs", "application/json",
		strings.NewReader(`{"user_id":"alice","count":0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/jobs", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeGetJob(t *testing.T) {
	srv, st := testServer(t)

	created, err := st.CreateJob(context.Background(), model.ExtractionJob{
		UserID: "alice", RequestedCount: 3, Mode: "hybrid",
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/jobs/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var job model.ExtractionJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, created.ID, job.ID)
}

func TestServeGetJobNotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/jobs/no-such-job")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeListJobs(t *testing.T) {
	srv, st := testServer(t)

	_, err := st.CreateJob(context.Background(), model.ExtractionJob{UserID: "alice", RequestedCount: 1})
	require.NoError(t, err)
	_, err = st.CreateJob(context.Background(), model.ExtractionJob{UserID: "bob", RequestedCount: 1})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/jobs?user_id=alice")
	require.NoError(t, err)
	defer resp.Body.Close()

	var jobsList []model.ExtractionJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobsList))
	require.Len(t, jobsList, 1)
	assert.Equal(t, "alice", jobsList[0].UserID)
}

func TestServeCancelJob(t *testing.T) {
	srv, st := testServer(t)
	ctx := context.Background()

	created, err := st.CreateJob(ctx, model.ExtractionJob{UserID: "alice", RequestedCount: 1})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/jobs/"+created.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	got, err := st.GetJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, got.Status, "pending jobs cancel immediately")

	// Cancelling a terminal job conflicts.
	resp2, err := http.DefaultClient.Do(req.Clone(ctx))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestServeCancelJobNotFound(t *testing.T) {
	srv, _ := testServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/jobs/missing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
