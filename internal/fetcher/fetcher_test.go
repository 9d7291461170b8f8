package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher() *Fetcher {
	return New(Options{
		MaxRetries:  3,
		Timeout:     2 * time.Second,
		SourceDelay: time.Millisecond,
		BackoffBase: time.Millisecond,
	})
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>content</body></html>"))
	}))
	defer srv.Close()

	doc, err := fastFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, doc.Empty)
	assert.Contains(t, doc.Body, "content")
	assert.Equal(t, http.StatusOK, doc.StatusCode)
}

func TestFetch_ForbiddenReturnsEmptyWithoutRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	doc, err := fastFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, doc.Empty)
	assert.Equal(t, http.StatusForbidden, doc.StatusCode)
	assert.Equal(t, int64(1), calls.Load(), "403 must not consume retries")
}

func TestFetch_GoneAndNotFoundAreEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		doc, err := fastFetcher().Fetch(context.Background(), srv.URL)
		srv.Close()
		require.NoError(t, err)
		assert.True(t, doc.Empty, "status %d", status)
	}
}

func TestFetch_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetch_RateLimitedThenRecovers(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	doc, err := fastFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, doc.Empty)
	assert.Contains(t, doc.Body, "recovered")
	assert.Equal(t, int64(2), calls.Load())
}

func TestFetch_RotatesUserAgents(t *testing.T) {
	seen := make(map[string]struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get("User-Agent")] = struct{}{}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := fastFetcher()
	for i := 0; i < len(userAgents); i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Greater(t, len(seen), 1, "user agent should vary across requests")
}

func TestFetch_CircuitBreakerSuspendsFamily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := fastFetcher()
	for i := 0; i < 4; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suspended")
}

func TestFetch_BlockedChallengeIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Checking your browser before accessing</body></html>"))
	}))
	defer srv.Close()

	doc, err := fastFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, doc.Empty)
}

func TestFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastFetcher().Fetch(ctx, "http://example.com/")
	assert.Error(t, err)
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, "example.com", familyOf("https://www.example.com/news"))
	assert.Equal(t, "example.com", familyOf("http://example.com"))
	assert.Equal(t, "unknown", familyOf("::not-a-url"))
}

func TestDetectBlock(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}

	blocked, kind := detectBlock(resp, []byte("<html>normal page with plenty of content that goes on and on</html>"))
	assert.False(t, blocked)
	assert.Empty(t, kind)

	blocked, kind = detectBlock(resp, []byte("please solve this reCAPTCHA to continue"))
	assert.True(t, blocked)
	assert.Equal(t, "captcha", kind)

	blocked, kind = detectBlock(resp, []byte("<noscript>enable JavaScript to view</noscript>"))
	assert.True(t, blocked)
	assert.Equal(t, "js_shell", kind)
}
