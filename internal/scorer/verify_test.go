package scorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-group/discover-cli/internal/model"
)

func TestVerifyAll_MarksLiveSites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	records := []model.CandidateRecord{{
		Name:        "AgroSense Technologies",
		Website:     srv.URL,
		Description: "Soil moisture sensors for precision agriculture across Europe.",
	}}

	NewVerifier(2, time.Second).VerifyAll(context.Background(), records)

	assert.True(t, records[0].Verified)
	require.NotNil(t, records[0].LastVerifiedAt)
	assert.Equal(t, Compute(records[0]), records[0].QualityScore)
}

func TestVerifyAll_HeadRejectedFallsBackToGet(t *testing.T) {
	var heads, gets atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			heads.Add(1)
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			gets.Add(1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	records := []model.CandidateRecord{{Name: "FlowBio Diagnostics", Website: srv.URL}}
	NewVerifier(1, time.Second).VerifyAll(context.Background(), records)

	assert.True(t, records[0].Verified)
	assert.Equal(t, int64(1), heads.Load())
	assert.Equal(t, int64(1), gets.Load())
}

func TestVerifyAll_DeadSiteIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	records := []model.CandidateRecord{{
		Name:        "Ghost Startup Holdings",
		Website:     srv.URL,
		Description: "A description long enough to pass the length bonus threshold.",
	}}
	NewVerifier(1, time.Second).VerifyAll(context.Background(), records)

	assert.False(t, records[0].Verified)
	assert.Nil(t, records[0].LastVerifiedAt)
	assert.Equal(t, Compute(records[0]), records[0].QualityScore, "record still scored")
}

func TestVerifyAll_SkipsInvalidWebsites(t *testing.T) {
	records := []model.CandidateRecord{
		{Name: "No Website Org", Description: "Long enough description to earn the description bonus here."},
		{Name: "Bad URL Org", Website: "not-a-url"},
	}
	NewVerifier(1, time.Second).VerifyAll(context.Background(), records)

	for _, rec := range records {
		assert.False(t, rec.Verified)
		assert.Equal(t, Compute(rec), rec.QualityScore)
	}
}
