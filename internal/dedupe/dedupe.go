// Package dedupe collapses near-duplicate candidate records by fuzzy name
// matching and website identity.
package dedupe

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"

	"github.com/scout-group/discover-cli/internal/model"
)

// SimilarityThreshold is the minimum normalized name similarity for two
// records to be considered the same organization.
const SimilarityThreshold = 0.80

var corporateSuffixes = []string{
	"incorporated", "corporation", "limited", "company",
	"inc", "corp", "ltd", "llc", "gmbh", "plc", "bv", "ag", "sa", "co",
}

var leadingArticles = []string{"the ", "a ", "an "}

// canonicalize reduces a name to its comparison form: Unicode-decomposed,
// lowercased, stripped of punctuation, corporate suffixes, and leading
// articles. The result is never stored; display names keep their original
// casing.
func canonicalize(name string) string {
	s := norm.NFKD.String(name)
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && r < 128:
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
		default:
			b.WriteByte(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for _, art := range leadingArticles {
		if strings.HasPrefix(s, art) {
			s = strings.TrimPrefix(s, art)
			break
		}
	}

	words := strings.Fields(s)
	for len(words) > 1 {
		last := words[len(words)-1]
		if !isCorporateSuffix(last) {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isCorporateSuffix(w string) bool {
	for _, s := range corporateSuffixes {
		if w == s {
			return true
		}
	}
	return false
}

// similarity is (longerLen - distance) / longerLen over canonical names.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	d := levenshtein.Distance(a, b, nil)
	return float64(longer-d) / float64(longer)
}

// canonicalWebsite reduces a URL to host+path for identity comparison.
func canonicalWebsite(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}

type entry struct {
	canonical string
	website   string
}

// Dedupe collapses duplicates, keeping the first occurrence of each
// organization. Later duplicates contribute their source refs and fill
// fields the first occurrence lacked. The operation is idempotent.
func Dedupe(records []model.CandidateRecord) []model.CandidateRecord {
	var kept []model.CandidateRecord
	var entries []entry // parallel to kept

	for _, rec := range records {
		canon := canonicalize(rec.Name)
		site := canonicalWebsite(rec.Website)

		matched := -1
		for i, e := range entries {
			if site != "" && e.website != "" && site == e.website {
				matched = i
				break
			}
			if similarity(canon, e.canonical) >= SimilarityThreshold {
				matched = i
				break
			}
		}

		if matched < 0 {
			kept = append(kept, rec)
			entries = append(entries, entry{canonical: canon, website: site})
			continue
		}
		merge(&kept[matched], rec)
		if entries[matched].website == "" && site != "" {
			entries[matched].website = site
		}
	}
	return kept
}

// merge folds a duplicate into the record that was seen first. The first
// occurrence wins every field it already has; duplicates only fill gaps
// and contribute refs and tags.
func merge(dst *model.CandidateRecord, dup model.CandidateRecord) {
	if dst.Website == "" {
		dst.Website = dup.Website
	}
	if dst.Description == "" {
		dst.Description = dup.Description
	}
	if dst.Location == nil {
		dst.Location = dup.Location
	}
	if !dst.FundingSignal && dup.FundingSignal {
		dst.FundingSignal = true
		dst.FundingAmount = dup.FundingAmount
	}
	for _, ref := range dup.SourceRefs {
		if !containsRef(dst.SourceRefs, ref) {
			dst.SourceRefs = append(dst.SourceRefs, ref)
		}
	}
	for _, tag := range dup.IndustryTags {
		if !containsRef(dst.IndustryTags, tag) {
			dst.IndustryTags = append(dst.IndustryTags, tag)
		}
	}
}

func containsRef(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
