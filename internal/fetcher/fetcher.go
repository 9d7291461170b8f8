// Package fetcher downloads web documents from bot-hostile sources with
// retries, header rotation, and status-specific policies.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scout-group/discover-cli/internal/resilience"
)

// ErrFetchFailed is returned when every retry attempt is exhausted.
var ErrFetchFailed = eris.New("fetcher: fetch failed")

const maxBodyBytes = 512 * 1024

// Document is a fetched page. Empty marks a source that is structurally
// unusable (bot-blocked, gone) — skip it, don't retry it.
type Document struct {
	URL        string
	Body       string
	StatusCode int
	Empty      bool
}

// Options configures the fetcher.
type Options struct {
	MaxRetries int           // default 3
	Timeout    time.Duration // per request; default 15s
	// SourceDelay is the fixed inter-request delay per source family.
	// Default 1500ms.
	SourceDelay time.Duration
	// BackoffBase is the base delay for retry escalation. Default 1s.
	BackoffBase time.Duration
	// AggressiveFamilies lists hostnames known to employ aggressive bot
	// detection; they get a longer escalation.
	AggressiveFamilies []string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

var referers = []string{
	"https://www.google.com/",
	"https://duckduckgo.com/",
	"https://www.bing.com/",
}

// Fetcher performs resilient HTTP GETs. One instance is shared per process;
// per-family limiters and breakers are guarded internally.
type Fetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*resilience.CircuitBreaker

	rotation atomic.Uint64
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.SourceDelay <= 0 {
		opts.SourceDelay = 1500 * time.Millisecond
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

// Fetch downloads a URL. A 403/404/410 response yields an empty Document
// without error and without consuming retries; 429 triggers a longer backoff
// within the same attempt budget; other failures retry with escalating
// delay. Exhausting retries returns ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	family := familyOf(rawURL)

	br := f.breakerFor(family)
	if err := br.Allow(); err != nil {
		return nil, eris.Wrapf(err, "fetcher: source family %s suspended", family)
	}

	if err := f.limiterFor(family).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: pacing wait")
	}

	doc, err := f.fetchWithRetry(ctx, rawURL, family)
	br.Record(err)
	return doc, err
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL, family string) (*Document, error) {
	var lastErr error

	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "fetcher: cancelled")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: build request %s", rawURL)
		}
		f.rotateHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Debug("fetch attempt failed",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.delay(ctx, attempt, family, false)
			continue
		}

		switch resp.StatusCode {
		case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
			// Structurally unusable source: skip, not retry.
			_ = resp.Body.Close()
			zap.L().Debug("source unusable",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
			)
			return &Document{URL: rawURL, StatusCode: resp.StatusCode, Empty: true}, nil

		case http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = resilience.NewTransientError(eris.Errorf("fetcher: rate limited by %s", family), resp.StatusCode)
			f.delay(ctx, attempt, family, true)
			continue
		}

		if resp.StatusCode >= 400 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: status %d from %s", resp.StatusCode, rawURL)
			f.delay(ctx, attempt, family, false)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			f.delay(ctx, attempt, family, false)
			continue
		}

		if blocked, kind := detectBlock(resp, body); blocked {
			// A challenge page is as unusable as a 403.
			zap.L().Debug("source block detected",
				zap.String("url", rawURL),
				zap.String("kind", kind),
			)
			return &Document{URL: rawURL, StatusCode: resp.StatusCode, Empty: true}, nil
		}

		return &Document{URL: rawURL, Body: string(body), StatusCode: resp.StatusCode}, nil
	}

	return nil, eris.Wrapf(ErrFetchFailed, "%s: %v", rawURL, lastErr)
}

// delay sleeps before the next attempt. Rate-limited responses and families
// with aggressive bot defenses wait longer.
func (f *Fetcher) delay(ctx context.Context, attempt int, family string, rateLimited bool) {
	base := f.opts.BackoffBase
	if rateLimited {
		base *= 4
	} else if f.isAggressive(family) {
		base *= 2
	}
	d := resilience.Backoff(attempt, resilience.RetryConfig{
		InitialBackoff: base,
		MaxBackoff:     60 * time.Second,
	})
	_ = resilience.Sleep(ctx, d)
}

// rotateHeaders varies identifying headers per attempt to avoid uniform
// blocking.
func (f *Fetcher) rotateHeaders(req *http.Request) {
	n := f.rotation.Add(1)
	req.Header.Set("User-Agent", userAgents[n%uint64(len(userAgents))])
	req.Header.Set("Referer", referers[n%uint64(len(referers))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func (f *Fetcher) limiterFor(family string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[family]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(f.opts.SourceDelay), 1)
	f.limiters[family] = lim
	return lim
}

func (f *Fetcher) breakerFor(family string) *resilience.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if br, ok := f.breakers[family]; ok {
		return br
	}
	br := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 4,
		ResetTimeout:     5 * time.Minute,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Info("source family circuit transition",
				zap.String("family", family),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	f.breakers[family] = br
	return br
}

func (f *Fetcher) isAggressive(family string) bool {
	for _, a := range f.opts.AggressiveFamilies {
		if strings.EqualFold(a, family) {
			return true
		}
	}
	return false
}

// familyOf groups URLs by host so pacing and breakers apply per source.
func familyOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}
