package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/extract"
	"github.com/scout-group/discover-cli/internal/model"
)

// scrape walks the source registry, fetching and extracting until the quota
// is met or sources run out. Per-source failures are accumulated and the
// walk continues; only cancellation stops it early.
func (o *Orchestrator) scrape(ctx context.Context, quota int, opts Options, report func(done, total int)) ([]model.CandidateRecord, []string) {
	if o.fetcher == nil || o.registry == nil {
		return nil, []string{"discovery: scraped channel not configured"}
	}

	var out []model.CandidateRecord
	var errs []string

	for _, family := range o.registry.Families {
		if o.cancelled(opts) || ctx.Err() != nil {
			break
		}
		if len(out) >= quota {
			break
		}

		urls := family.URLs
		if family.FeedURL != "" {
			feedURLs, err := extract.ListFeedURLs(ctx, o.fetcher, family, o.pagesPerFeed)
			if err != nil {
				errs = append(errs, fmt.Sprintf("feed %s: %v", family.Name, err))
			}
			urls = append(urls, feedURLs...)
		}

		adapter := o.registry.AdapterFor(family)
		for _, pageURL := range urls {
			if o.cancelled(opts) || ctx.Err() != nil {
				break
			}
			if len(out) >= quota {
				break
			}

			doc, err := o.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				errs = append(errs, fmt.Sprintf("fetch %s: %v", pageURL, err))
				continue
			}
			if doc.Empty {
				continue
			}

			found, err := adapter.Extract(pageURL, doc.Body)
			if err != nil {
				errs = append(errs, fmt.Sprintf("extract %s: %v", pageURL, err))
				continue
			}
			if opts.Country != "" {
				found = filterCountry(found, opts.Country)
			}
			// A single page can over-deliver; cap at the remaining quota.
			if rem := quota - len(out); len(found) > rem {
				found = found[:rem]
			}
			out = append(out, found...)
			report(len(out), quota)
		}

		zap.L().Debug("source family done",
			zap.String("family", family.Name),
			zap.Int("candidates", len(out)),
		)
	}
	return out, errs
}

// filterCountry drops records whose location names a different country.
// Records with no location survive; the scorer penalizes them instead.
func filterCountry(records []model.CandidateRecord, country string) []model.CandidateRecord {
	var out []model.CandidateRecord
	for _, c := range records {
		if c.Location != nil && c.Location.Country != "" && !strings.EqualFold(c.Location.Country, country) {
			continue
		}
		out = append(out, c)
	}
	return out
}
