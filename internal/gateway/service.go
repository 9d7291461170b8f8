// Package gateway manages completion providers: selection, rate limiting,
// retry with provider switching, response caching, and health checks.
package gateway

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/resilience"
)

// Config controls gateway behavior.
type Config struct {
	RetryBudget    int           // retries after the first attempt; default 2
	RequestTimeout time.Duration // per provider call; default 60s
	CacheTTL       time.Duration // default 15m
	SweepInterval  time.Duration // default 2m
	HealthInterval time.Duration // default 60s
	BackoffBase    time.Duration // default 500ms
	BackoffCap     time.Duration // default 15s
}

func (c Config) withDefaults() Config {
	if c.RetryBudget <= 0 {
		c.RetryBudget = 2
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 2 * time.Minute
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 60 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 15 * time.Second
	}
	return c
}

// RateLimit pairs a provider with its per-minute request budget.
type RateLimit struct {
	Provider  Provider
	PerMinute int
}

// Service is the completion gateway. It is constructed once at process
// start and owns all shared provider/cache state.
type Service struct {
	cfg       Config
	states    []*providerState // sorted by provider priority
	cache     *responseCache
	cacheHits atomic.Int64
	now       func() time.Time
}

// New creates a gateway over the given providers. Providers are tried in
// priority order (lower first).
func New(cfg Config, providers ...RateLimit) *Service {
	cfg = cfg.withDefaults()

	states := make([]*providerState, 0, len(providers))
	for _, p := range providers {
		states = append(states, newProviderState(p.Provider, p.PerMinute))
	}
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].provider.Priority() < states[j].provider.Priority()
	})

	return &Service{
		cfg:    cfg,
		states: states,
		cache:  newResponseCache(cfg.CacheTTL),
		now:    time.Now,
	}
}

// Providers returns the configured provider names in selection order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.states))
	for i, st := range s.states {
		names[i] = st.provider.Name()
	}
	return names
}

// UsageFor returns usage counters for a named provider.
func (s *Service) UsageFor(name string) (Usage, bool) {
	for _, st := range s.states {
		if st.provider.Name() == name {
			return st.usage(s.cacheHits.Load()), true
		}
	}
	return Usage{}, false
}

// Start launches the health-check and cache-sweep loops. They stop when ctx
// is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.healthLoop(ctx)
	go s.sweepLoop(ctx)
}

// Complete issues a completion request, serving from cache when possible
// and failing over between providers on transient errors.
func (s *Service) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	key := cacheKey(req)
	if resp, ok := s.cache.get(key, s.now()); ok {
		s.cacheHits.Add(1)
		resp.CacheHit = true
		return &resp, nil
	}

	budget := req.RetryBudget
	if budget <= 0 {
		budget = s.cfg.RetryBudget
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}

	// The attempt context tracks the provider choice as a value; the shared
	// provider states are never reassigned mid-flight.
	attempt := struct {
		number       int
		lastProvider string
	}{}

	var lastErr error
	maxAttempts := budget + 1
	for ; attempt.number < maxAttempts; attempt.number++ {
		st, err := s.selectProvider(req.PreferredProvider, attempt.lastProvider)
		if err != nil {
			if lastErr != nil {
				// A provider failed earlier in this call; surface that instead
				// of the selection error.
				break
			}
			return nil, err
		}
		attempt.lastProvider = st.provider.Name()

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := st.provider.Complete(callCtx, req)
		cancel()

		st.requests.Add(1)
		if err == nil {
			resp.Provider = st.provider.Name()
			s.cache.put(key, *resp, s.now())
			return resp, nil
		}

		st.failures.Add(1)
		lastErr = err
		zap.L().Warn("completion attempt failed",
			zap.String("provider", st.provider.Name()),
			zap.Int("attempt", attempt.number+1),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
		if attempt.number >= maxAttempts-1 {
			break
		}

		delay := resilience.Backoff(attempt.number, resilience.RetryConfig{
			InitialBackoff: s.cfg.BackoffBase,
			MaxBackoff:     s.cfg.BackoffCap,
		})
		if err := resilience.Sleep(ctx, delay); err != nil {
			break
		}
	}

	return nil, &ProviderError{
		Provider: attempt.lastProvider,
		Attempts: attempt.number + 1,
		Err:      lastErr,
	}
}

// selectProvider picks the preferred provider when usable, else the
// lowest-priority healthy provider with spare rate budget. The provider
// that just failed is avoided when an alternative exists.
func (s *Service) selectProvider(preferred, avoid string) (*providerState, error) {
	now := s.now()

	if preferred != "" {
		for _, st := range s.states {
			if st.provider.Name() != preferred || !st.healthy.Load() {
				continue
			}
			if st.tryReserve(now) {
				return st, nil
			}
		}
	}

	// First pass skips the provider that just failed; second pass allows it
	// so a single-provider setup can still retry.
	anyHealthy := false
	for _, skipAvoided := range []bool{true, false} {
		for _, st := range s.states {
			if !st.healthy.Load() {
				continue
			}
			anyHealthy = true
			if skipAvoided && st.provider.Name() == avoid {
				continue
			}
			if st.tryReserve(now) {
				return st, nil
			}
		}
		if avoid == "" {
			break
		}
	}

	if !anyHealthy {
		return nil, ErrUnavailable
	}
	return nil, ErrQuotaExceeded
}

func validateRequest(req Request) error {
	if len(req.Messages) == 0 {
		return eris.Wrap(ErrInvalidRequest, "empty messages")
	}
	if req.Messages[0].Role != "user" {
		return eris.Wrap(ErrInvalidRequest, "conversation must start with a user turn")
	}
	prev := ""
	for _, m := range req.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			return eris.Wrapf(ErrInvalidRequest, "unknown role %q", m.Role)
		}
		if m.Role == prev {
			return eris.Wrap(ErrInvalidRequest, "consecutive turns with the same role")
		}
		prev = m.Role
	}
	return nil
}

func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.cache.sweep(s.now()); n > 0 {
				zap.L().Debug("response cache sweep", zap.Int("evicted", n))
			}
		}
	}
}

func (s *Service) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

// checkHealth probes every provider once and flips isHealthy on transitions.
func (s *Service) checkHealth(ctx context.Context) {
	for _, st := range s.states {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := st.provider.Probe(probeCtx)
		cancel()

		was := st.healthy.Load()
		now := err == nil
		if was != now {
			st.healthy.Store(now)
			if now {
				zap.L().Info("provider recovered", zap.String("provider", st.provider.Name()))
			} else {
				zap.L().Warn("provider unhealthy",
					zap.String("provider", st.provider.Name()),
					zap.Error(err),
				)
			}
		}
	}
}
