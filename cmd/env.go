package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/config"
	"github.com/scout-group/discover-cli/internal/discovery"
	"github.com/scout-group/discover-cli/internal/extract"
	"github.com/scout-group/discover-cli/internal/fetcher"
	"github.com/scout-group/discover-cli/internal/gateway"
	"github.com/scout-group/discover-cli/internal/jobs"
	"github.com/scout-group/discover-cli/internal/scorer"
	"github.com/scout-group/discover-cli/internal/store"
	"github.com/scout-group/discover-cli/pkg/anthropic"
	"github.com/scout-group/discover-cli/pkg/perplexity"
)

// env bundles the wired subsystems a command needs.
type env struct {
	Store        store.Store
	Gateway      *gateway.Service
	Fetcher      *fetcher.Fetcher
	Registry     *extract.Registry
	Orchestrator *discovery.Orchestrator
	Runner       *jobs.Runner
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close", zap.Error(err))
		}
	}
}

// initEnv builds the full pipeline from config and runs migrations.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	gw, err := buildGateway(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	gw.Start(ctx)

	reg, err := extract.LoadRegistry()
	if err != nil {
		st.Close()
		return nil, err
	}
	reg.MinScore = cfg.Discovery.AdapterMinScore

	f := fetcher.New(fetcher.Options{
		MaxRetries:         cfg.Fetch.MaxRetries,
		Timeout:            time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		SourceDelay:        time.Duration(cfg.Fetch.SourceDelayMs) * time.Millisecond,
		BackoffBase:        time.Duration(cfg.Fetch.BackoffBaseMs) * time.Millisecond,
		AggressiveFamilies: reg.AggressiveHosts(),
	})

	v := scorer.NewVerifier(
		cfg.Discovery.VerifyConcurrency,
		time.Duration(cfg.Discovery.VerifyTimeoutSecs)*time.Second,
	)

	orch := discovery.New(gw, f, reg, v)
	orch.SetBatchSize(cfg.Discovery.BatchSize)

	runner := jobs.NewRunner(st, orch)
	runner.SetQualityGates(cfg.Discovery.MinQualityScore, cfg.Discovery.HybridGeneratedPct)

	return &env{
		Store:        st,
		Gateway:      gw,
		Fetcher:      f,
		Registry:     reg,
		Orchestrator: orch,
		Runner:       runner,
	}, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(sc.DatabaseURL)
	}
	return nil, eris.Errorf("unknown store driver %q", sc.Driver)
}

// buildGateway assembles providers from config. A provider with no API key
// is simply left out; at least one must remain.
func buildGateway(cfg *config.Config) (*gateway.Service, error) {
	var providers []gateway.RateLimit

	if cfg.Anthropic.Key != "" {
		providers = append(providers, gateway.RateLimit{
			Provider: &gateway.AnthropicProvider{
				Client: anthropic.NewClient(cfg.Anthropic.Key),
				Model:  cfg.Anthropic.Model,
				Prio:   cfg.Anthropic.Priority,
			},
			PerMinute: cfg.Anthropic.RateLimitPerMin,
		})
	}
	if cfg.Perplexity.Key != "" {
		providers = append(providers, gateway.RateLimit{
			Provider: &gateway.PerplexityProvider{
				Client: perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL)),
				Model:  cfg.Perplexity.Model,
				Prio:   cfg.Perplexity.Priority,
			},
			PerMinute: cfg.Perplexity.RateLimitPerMin,
		})
	}
	if len(providers) == 0 {
		return nil, eris.New("no completion provider configured: set an anthropic or perplexity API key")
	}

	return gateway.New(gateway.Config{
		RetryBudget:    cfg.Gateway.RetryBudget,
		RequestTimeout: time.Duration(cfg.Gateway.RequestTimeoutSecs) * time.Second,
		CacheTTL:       time.Duration(cfg.Gateway.CacheTTLSecs) * time.Second,
		SweepInterval:  time.Duration(cfg.Gateway.SweepIntervalSecs) * time.Second,
		HealthInterval: time.Duration(cfg.Gateway.HealthIntervalSecs) * time.Second,
		BackoffBase:    time.Duration(cfg.Gateway.BackoffBaseMs) * time.Millisecond,
		BackoffCap:     time.Duration(cfg.Gateway.BackoffCapMs) * time.Millisecond,
	}, providers...), nil
}
