package model

import (
	"encoding/json"
	"time"
)

// Lead is the persisted form of an accepted candidate, shaped for the
// external datastore collaborator.
type Lead struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	City             string          `json:"city,omitempty"`
	Website          string          `json:"website,omitempty"`
	Description      string          `json:"description,omitempty"`
	LocationScore    int             `json:"location_score"`
	ReadinessScore   int             `json:"readiness_score"`
	FeasibilityScore int             `json:"feasibility_score"`
	OverallScore     int             `json:"overall_score"`
	Justification    string          `json:"justification,omitempty"`
	Priority         bool            `json:"priority"`
	ContactInfo      json.RawMessage `json:"contact_info,omitempty"` // opaque blob
	OwnerID          string          `json:"owner_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LeadFromCandidate maps a scored candidate onto the persisted lead shape.
// The three sub-scores are derived from the same fields the quality score
// uses: location completeness, readiness (description + funding), and
// feasibility (website validity + verification).
func LeadFromCandidate(c CandidateRecord, ownerID string, now time.Time) Lead {
	loc := 0
	city := ""
	if c.HasLocation() {
		loc = 80
		city = c.Location.City
		if c.Location.City != "" && c.Location.Country != "" {
			loc = 100
		}
	}

	readiness := 0
	if len(c.Description) > 30 {
		readiness += 60
	}
	if c.FundingSignal {
		readiness += 40
	}

	feasibility := 0
	if c.Website != "" {
		feasibility += 50
	}
	if c.Verified {
		feasibility += 50
	}

	return Lead{
		Name:             c.Name,
		City:             city,
		Website:          c.Website,
		Description:      c.Description,
		LocationScore:    loc,
		ReadinessScore:   readiness,
		FeasibilityScore: feasibility,
		OverallScore:     c.QualityScore,
		Justification:    justification(c),
		Priority:         c.QualityScore >= 85 && c.Verified,
		OwnerID:          ownerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func justification(c CandidateRecord) string {
	j := "discovered via " + string(c.SourceType)
	if c.Verified {
		j += ", website verified reachable"
	}
	if c.FundingSignal {
		j += ", funding signal present"
	}
	return j
}
