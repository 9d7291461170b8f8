package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-group/discover-cli/internal/fetcher"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>Startup News</title>
	<item><title>First</title><link>https://news.example.com/a</link></item>
	<item><title>Second</title><link>https://news.example.com/b</link></item>
	<item><title>No link</title></item>
	<item><title>Third</title><link>https://news.example.com/c</link></item>
</channel></rss>`

func feedFetcher() *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		MaxRetries:  2,
		Timeout:     2 * time.Second,
		SourceDelay: time.Millisecond,
		BackoffBase: time.Millisecond,
	})
}

func TestListFeedURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	urls, err := ListFeedURLs(context.Background(), feedFetcher(), SourceFamily{
		Name:    "test",
		FeedURL: srv.URL,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://news.example.com/a",
		"https://news.example.com/b",
		"https://news.example.com/c",
	}, urls)
}

func TestListFeedURLs_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	urls, err := ListFeedURLs(context.Background(), feedFetcher(), SourceFamily{
		Name:    "test",
		FeedURL: srv.URL,
	}, 2)
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestListFeedURLs_NoFeed(t *testing.T) {
	urls, err := ListFeedURLs(context.Background(), feedFetcher(), SourceFamily{Name: "test"}, 5)
	require.NoError(t, err)
	assert.Nil(t, urls)
}

func TestListFeedURLs_GoneFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	urls, err := ListFeedURLs(context.Background(), feedFetcher(), SourceFamily{
		Name:    "test",
		FeedURL: srv.URL,
	}, 5)
	require.NoError(t, err, "a vanished feed is not an error")
	assert.Empty(t, urls)
}
