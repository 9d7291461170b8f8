package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/internal/model"
)

// namePatterns capture organization names from running text. Each pattern's
// first capture group is the name. Ordered from most to least specific.
var namePatterns = []*regexp.Regexp{
	// "AgroSense raises $4M", "Foo Labs raised a seed round"
	regexp.MustCompile(`([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,4})\s+(?:raises|raised|secures|secured|closes|closed)\s+(?:a\s+|an\s+)?[$€£]?\d`),
	// "startup Acme", "spinout Acme", "company Acme announced"
	regexp.MustCompile(`(?:startup|spinout|spin-out|company)\s+([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,4})`),
	// Names ending in a corporate-flavored suffix word.
	regexp.MustCompile(`([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3}\s+(?:Tech|Technologies|Labs|Systems|Robotics|Bio|Biosciences|Therapeutics|Analytics|AI|Solutions))\b`),
}

var fundingPattern = regexp.MustCompile(`[$€£]\s?\d+(?:\.\d+)?\s?(?:[MBK]|million|billion|thousand)?`)

// GenericAdapter extracts candidates from unstructured article text by
// phrase patterns. It is the fallback when no selector layout is known
// for a source.
type GenericAdapter struct {
	Family   SourceFamily
	MinScore int
}

func (a *GenericAdapter) Name() string { return a.Family.Name }

func (a *GenericAdapter) Extract(pageURL, body string) ([]model.CandidateRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse %s", pageURL)
	}
	doc.Find("script, style, nav, footer, header").Remove()
	text := cleanText(doc.Text())

	seen := make(map[string]struct{})
	var out []model.CandidateRecord

	for _, pat := range namePatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if !validName(name) {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			c := model.CandidateRecord{
				Name:        name,
				Description: surroundingSentence(text, name),
				SourceType:  model.SourceScraped,
				SourceRefs:  []string{pageURL},
			}
			if f := fundingPattern.FindString(c.Description); f != "" {
				c.FundingSignal = true
				c.FundingAmount = cleanText(f)
			}
			if keepCandidate(c, a.MinScore) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// surroundingSentence returns the sentence containing the first mention of
// name, as a rough description.
func surroundingSentence(text, name string) string {
	idx := strings.Index(text, name)
	if idx < 0 {
		return ""
	}
	start := strings.LastIndexAny(text[:idx], ".!?")
	if start < 0 {
		start = 0
	} else {
		start++
	}
	rest := text[idx:]
	end := strings.IndexAny(rest, ".!?")
	if end < 0 {
		end = len(rest)
	}
	return cleanText(text[start : idx+end])
}

// absoluteURL resolves href against the page it appeared on.
func absoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
