package extract

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/internal/fetcher"
)

// ListFeedURLs expands a family's RSS/Atom feed into article URLs, newest
// first, capped at limit. The feed body goes through the shared fetcher so
// it gets the same pacing and block handling as any other page.
func ListFeedURLs(ctx context.Context, f *fetcher.Fetcher, family SourceFamily, limit int) ([]string, error) {
	if family.FeedURL == "" {
		return nil, nil
	}
	doc, err := f.Fetch(ctx, family.FeedURL)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: fetch feed %s", family.Name)
	}
	if doc.Empty {
		return nil, nil
	}

	feed, err := gofeed.NewParser().ParseString(doc.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse feed %s", family.Name)
	}

	var urls []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
		if limit > 0 && len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
