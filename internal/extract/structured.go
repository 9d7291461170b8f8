package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/model"
)

// StructuredAdapter reads a page through the family's selector chains.
// Each field's chain is tried in order; the first selector that matches
// wins, so a site redesign degrades to the fallback instead of breaking.
type StructuredAdapter struct {
	Family   SourceFamily
	MinScore int
}

func (a *StructuredAdapter) Name() string { return a.Family.Name }

func (a *StructuredAdapter) Extract(pageURL, body string) ([]model.CandidateRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse %s", pageURL)
	}

	items := a.selectFirst(doc.Selection, "item")
	if items == nil || items.Length() == 0 {
		zap.L().Debug("no items matched",
			zap.String("family", a.Family.Name),
			zap.String("url", pageURL),
		)
		return nil, nil
	}

	var out []model.CandidateRecord
	items.Each(func(_ int, item *goquery.Selection) {
		c := model.CandidateRecord{
			Name:        a.text(item, "name"),
			Description: a.text(item, "description"),
			SourceType:  model.SourceScraped,
			SourceRefs:  []string{pageURL},
		}
		if href := a.attr(item, "website", "href"); href != "" {
			c.Website = absoluteURL(pageURL, href)
		}
		if loc := a.text(item, "location"); loc != "" {
			c.Location = parseLocation(loc)
		}
		if keepCandidate(c, a.MinScore) {
			out = append(out, c)
		}
	})
	return out, nil
}

// selectFirst walks a field's chain and returns the first matching set.
func (a *StructuredAdapter) selectFirst(root *goquery.Selection, field string) *goquery.Selection {
	for _, sel := range a.Family.Selectors[field] {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func (a *StructuredAdapter) text(item *goquery.Selection, field string) string {
	found := a.selectFirst(item, field)
	if found == nil {
		return ""
	}
	return cleanText(found.First().Text())
}

func (a *StructuredAdapter) attr(item *goquery.Selection, field, name string) string {
	found := a.selectFirst(item, field)
	if found == nil {
		return ""
	}
	v, _ := found.First().Attr(name)
	return strings.TrimSpace(v)
}

// parseLocation splits a "City, Country" string; a single token is treated
// as a city.
func parseLocation(s string) *model.Location {
	parts := strings.SplitN(s, ",", 2)
	loc := &model.Location{City: cleanText(parts[0])}
	if len(parts) == 2 {
		loc.Country = cleanText(parts[1])
	}
	if loc.City == "" && loc.Country == "" {
		return nil
	}
	return loc
}
