// Package scorer assigns deterministic quality scores to candidate records
// and verifies their websites.
package scorer

import (
	"net/url"
	"strings"

	"github.com/scout-group/discover-cli/internal/model"
)

// DefaultThreshold is the minimum score for a candidate to survive the
// pipeline's final filter.
const DefaultThreshold = 70

// Compute returns the quality score for a record. The function is pure:
// the same record always scores the same, so re-runs are reproducible.
func Compute(c model.CandidateRecord) int {
	score := 0
	if len(strings.TrimSpace(c.Name)) > 5 {
		score += 20
	}
	if ValidWebsite(c.Website) {
		score += 25
	}
	if len(strings.TrimSpace(c.Description)) > 30 {
		score += 20
	}
	if c.HasLocation() {
		score += 15
	}
	if c.FundingSignal {
		score += 10
	}
	if c.Verified {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ValidWebsite reports whether a URL is an absolute http(s) address with a
// public-looking host.
func ValidWebsite(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" {
		return false
	}
	if !strings.Contains(host, ".") {
		return false
	}
	if strings.HasPrefix(host, "127.") || strings.HasPrefix(host, "192.168.") || strings.HasPrefix(host, "10.") {
		return false
	}
	return true
}
