package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatus("")} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestCandidateConfidence(t *testing.T) {
	assert.InDelta(t, 0.0, CandidateRecord{}.Confidence(), 1e-9)
	assert.InDelta(t, 0.7, CandidateRecord{QualityScore: 70}.Confidence(), 1e-9)
	assert.InDelta(t, 1.0, CandidateRecord{QualityScore: 100}.Confidence(), 1e-9)
}

func TestHasLocation(t *testing.T) {
	assert.False(t, CandidateRecord{}.HasLocation())
	assert.False(t, CandidateRecord{Location: &Location{}}.HasLocation())
	assert.True(t, CandidateRecord{Location: &Location{City: "Utrecht"}}.HasLocation())
	assert.True(t, CandidateRecord{Location: &Location{Country: "Netherlands"}}.HasLocation())
}
