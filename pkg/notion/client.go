// Package notion wraps the Notion API as an optional sink for accepted leads.
package notion

import (
	"context"
	"strconv"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/scout-group/discover-cli/internal/model"
)

// Client defines the Notion API operations this application uses.
type Client interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// notionClient implements Client by wrapping a *notionapi.Client.
type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a Notion client with the given integration token.
// API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string) Client {
	return &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

// Sink pushes candidates into a Notion database.
type Sink struct {
	client     Client
	databaseID string
}

// NewSink builds a Sink targeting one database.
func NewSink(client Client, databaseID string) *Sink {
	return &Sink{client: client, databaseID: databaseID}
}

// Push creates one page per candidate and returns the number created. The
// first API error stops the push.
func (s *Sink) Push(ctx context.Context, candidates []model.CandidateRecord) (int, error) {
	for i, c := range candidates {
		if _, err := s.client.CreatePage(ctx, s.pageFor(c)); err != nil {
			return i, eris.Wrapf(err, "notion: push %s", c.Name)
		}
	}
	return len(candidates), nil
}

func (s *Sink) pageFor(c model.CandidateRecord) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: c.Name}}},
		},
		"Score": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: strconv.Itoa(c.QualityScore)}}},
		},
		"Verified": notionapi.CheckboxProperty{Checkbox: c.Verified},
	}
	if c.Website != "" {
		props["Website"] = notionapi.URLProperty{URL: c.Website}
	}
	if c.Description != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: c.Description}}},
		}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: props,
	}
}
