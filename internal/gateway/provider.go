package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Message is a single conversational turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request describes a completion call.
type Request struct {
	Messages          []Message
	Temperature       *float64
	MaxTokens         int64
	PreferredProvider string
	// RetryBudget is the number of retries after the first attempt.
	// 0 means use the service default.
	RetryBudget int
	// Timeout bounds each provider call. 0 means use the service default.
	Timeout time.Duration
}

// Response is the result of a completion call.
type Response struct {
	Provider string
	Text     string
	CacheHit bool
}

// Provider is a single completion backend.
type Provider interface {
	Name() string
	// Priority orders provider selection; lower is preferred.
	Priority() int
	Complete(ctx context.Context, req Request) (*Response, error)
	// Probe issues a minimal health check.
	Probe(ctx context.Context) error
}

// Usage holds per-provider counters for observability.
type Usage struct {
	Requests  int64 `json:"requests"`
	Failures  int64 `json:"failures"`
	CacheHits int64 `json:"cache_hits"`
}

// providerState tracks health and the rate-limit window for one provider.
// The window is mutated with reserve-and-check under a mutex, never
// read-then-write, so concurrent Complete calls cannot oversubscribe it.
type providerState struct {
	provider Provider

	healthy atomic.Bool

	mu      sync.Mutex
	count   int
	resetAt time.Time
	limit   int // requests per window; <=0 disables limiting
	window  time.Duration

	requests atomic.Int64
	failures atomic.Int64
}

func newProviderState(p Provider, limitPerMin int) *providerState {
	s := &providerState{
		provider: p,
		limit:    limitPerMin,
		window:   time.Minute,
	}
	s.healthy.Store(true)
	return s
}

// tryReserve atomically claims one slot in the current rate window.
func (s *providerState) tryReserve(now time.Time) bool {
	if s.limit <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.resetAt) {
		s.count = 0
		s.resetAt = now.Add(s.window)
	}
	if s.count >= s.limit {
		return false
	}
	s.count++
	return true
}

func (s *providerState) usage(cacheHits int64) Usage {
	return Usage{
		Requests:  s.requests.Load(),
		Failures:  s.failures.Load(),
		CacheHits: cacheHits,
	}
}
