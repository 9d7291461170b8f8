// Package model defines the core data types shared across the discovery pipeline.
package model

import "time"

// SourceType identifies how a candidate was discovered.
type SourceType string

const (
	// SourceGenerated marks candidates produced by a completion provider.
	SourceGenerated SourceType = "generated"
	// SourceScraped marks candidates extracted from fetched web documents.
	SourceScraped SourceType = "scraped"
)

// Location is an optional city/country pair attached to a candidate.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// CandidateRecord is a provisional discovered entity (startup, university
// spinout, TTO) before and after scoring and verification.
//
// QualityScore is always recomputed from the record's current fields via
// scorer.Compute — it is never hand-set anywhere else. Verified=true implies
// a successful reachability probe happened at LastVerifiedAt.
type CandidateRecord struct {
	Name           string     `json:"name"`
	Website        string     `json:"website,omitempty"`
	Description    string     `json:"description,omitempty"`
	Location       *Location  `json:"location,omitempty"`
	IndustryTags   []string   `json:"industry_tags,omitempty"`
	FundingSignal  bool       `json:"funding_signal"`
	FundingAmount  string     `json:"funding_amount,omitempty"`
	SourceType     SourceType `json:"source_type"`
	SourceRefs     []string   `json:"source_refs,omitempty"`
	QualityScore   int        `json:"quality_score"`
	Verified       bool       `json:"verified"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}

// Confidence derives the 0-1 confidence from the quality score. It is never
// stored independently.
func (c CandidateRecord) Confidence() float64 {
	return float64(c.QualityScore) / 100.0
}

// HasLocation reports whether the candidate carries a usable city or country.
func (c CandidateRecord) HasLocation() bool {
	return c.Location != nil && (c.Location.City != "" || c.Location.Country != "")
}
