package extract

import (
	"strings"

	"github.com/scout-group/discover-cli/internal/model"
)

// MinAdapterScore is the default provisional score below which an extracted
// candidate is discarded before it reaches deduplication. The registry can
// override it from config.
const MinAdapterScore = 55

// Adapter extracts candidate records from one fetched document.
type Adapter interface {
	Name() string
	Extract(pageURL, body string) ([]model.CandidateRecord, error)
}

// denyNames are navigation and boilerplate strings that selector chains and
// phrase patterns sometimes capture instead of an organization name.
var denyNames = map[string]struct{}{
	"home":        {},
	"about":       {},
	"about us":    {},
	"news":        {},
	"blog":        {},
	"contact":     {},
	"contact us":  {},
	"read more":   {},
	"click here":  {},
	"learn more":  {},
	"sign up":     {},
	"log in":      {},
	"login":       {},
	"subscribe":   {},
	"newsletter":  {},
	"privacy":     {},
	"cookies":     {},
	"terms":       {},
	"search":      {},
	"menu":        {},
	"categories":  {},
	"advertise":   {},
	"all stories": {},
}

// validName reports whether an extracted string plausibly names an
// organization.
func validName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 100 {
		return false
	}
	if _, deny := denyNames[strings.ToLower(name)]; deny {
		return false
	}
	// A name that is all punctuation or digits is noise.
	hasLetter := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

// provisionalScore is a cheap completeness estimate used only to discard
// hopeless extractions early. The authoritative score is computed later.
func provisionalScore(c model.CandidateRecord) int {
	score := 0
	if len(c.Name) > 5 {
		score += 30
	} else if validName(c.Name) {
		score += 15
	}
	if c.Website != "" {
		score += 30
	}
	if len(c.Description) > 30 {
		score += 25
	} else if c.Description != "" {
		score += 10
	}
	if c.HasLocation() {
		score += 15
	}
	return score
}

// keepCandidate applies the name filter and the provisional threshold.
// A non-positive minScore falls back to MinAdapterScore.
func keepCandidate(c model.CandidateRecord, minScore int) bool {
	if minScore <= 0 {
		minScore = MinAdapterScore
	}
	if !validName(c.Name) {
		return false
	}
	return provisionalScore(c) >= minScore
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
