// Package discovery orchestrates candidate discovery across the generated
// (LLM) and scraped (web) channels and runs the shared quality pipeline.
package discovery

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/dedupe"
	"github.com/scout-group/discover-cli/internal/extract"
	"github.com/scout-group/discover-cli/internal/fetcher"
	"github.com/scout-group/discover-cli/internal/gateway"
	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/scorer"
)

// Mode selects which discovery channels run. The contract is strict:
// generated-only never touches the network scrapers, scraped-only never
// calls a completion provider.
type Mode string

const (
	ModeGenerated Mode = "generated-only"
	ModeScraped   Mode = "scraped-only"
	ModeHybrid    Mode = "hybrid"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGenerated, ModeScraped, ModeHybrid:
		return Mode(s), nil
	case "":
		return ModeHybrid, nil
	}
	return "", eris.Errorf("discovery: unknown mode %q", s)
}

// Options configures one discovery run.
type Options struct {
	Limit   int
	Country string
	Mode    Mode
	// GeneratedPct is the share of Limit sourced from the generated channel
	// in hybrid mode. Default 60.
	GeneratedPct int
	// Threshold is the minimum quality score. Default scorer.DefaultThreshold.
	Threshold int
	// Progress, when set, receives monotonic 0-100 updates.
	Progress func(pct int)
	// CancelRequested, when set, is polled at channel boundaries.
	CancelRequested func() bool
}

// ErrCancelled is returned when a run stops at a cancellation checkpoint.
var ErrCancelled = eris.New("discovery: run cancelled")

// Verifier probes candidate websites and writes quality scores in place.
type Verifier interface {
	VerifyAll(ctx context.Context, records []model.CandidateRecord)
}

// Orchestrator wires the discovery channels to the quality pipeline.
type Orchestrator struct {
	gateway  *gateway.Service
	fetcher  *fetcher.Fetcher
	registry *extract.Registry
	verifier Verifier

	batchSize    int
	pagesPerFeed int
}

// New builds an Orchestrator. Any of gateway/fetcher may be nil when the
// corresponding mode is never used.
func New(gw *gateway.Service, f *fetcher.Fetcher, reg *extract.Registry, v Verifier) *Orchestrator {
	return &Orchestrator{
		gateway:      gw,
		fetcher:      f,
		registry:     reg,
		verifier:     v,
		batchSize:    8,
		pagesPerFeed: 10,
	}
}

// SetBatchSize overrides the generated batch size. Values above the hard
// cap of 8 are ignored.
func (o *Orchestrator) SetBatchSize(n int) {
	if n > 0 && n <= 8 {
		o.batchSize = n
	}
}

// Discover runs one discovery pass and returns the accepted candidates,
// best first, at most opts.Limit of them.
func (o *Orchestrator) Discover(ctx context.Context, opts Options) ([]model.CandidateRecord, *model.RunSummary, error) {
	if opts.Limit <= 0 {
		return nil, nil, eris.New("discovery: limit must be positive")
	}
	if opts.GeneratedPct <= 0 || opts.GeneratedPct > 100 {
		opts.GeneratedPct = 60
	}
	if opts.Threshold <= 0 {
		opts.Threshold = scorer.DefaultThreshold
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int) {}
	}

	genQuota, scrQuota := o.quotas(opts)
	progress(10)

	summary := &model.RunSummary{}
	var pool []model.CandidateRecord

	if genQuota > 0 {
		if o.cancelled(opts) {
			return nil, nil, ErrCancelled
		}
		gen, err := o.generate(ctx, genQuota, opts, func(done, total int) {
			progress(10 + scale(done, total, genShare(opts, 80)))
		})
		if err != nil {
			if opts.Mode == ModeGenerated {
				// No fallback channel in generated-only mode.
				return nil, nil, err
			}
			summary.Errors = append(summary.Errors, err.Error())
			zap.L().Warn("generated channel failed, continuing with scraped", zap.Error(err))
		}
		pool = append(pool, gen...)
	}

	if scrQuota > 0 {
		if o.cancelled(opts) {
			return nil, nil, ErrCancelled
		}
		scr, errs := o.scrape(ctx, scrQuota, opts, func(done, total int) {
			base := 10 + genShare(opts, 80)
			progress(base + scale(done, total, 80-genShare(opts, 80)))
		})
		summary.Errors = append(summary.Errors, errs...)
		pool = append(pool, scr...)
	}

	if o.cancelled(opts) {
		return nil, nil, ErrCancelled
	}
	progress(90)

	summary.Attempted = len(pool)
	unique := dedupe.Dedupe(pool)
	o.verifier.VerifyAll(ctx, unique)

	var accepted []model.CandidateRecord
	for _, c := range unique {
		if c.QualityScore >= opts.Threshold {
			accepted = append(accepted, c)
		} else {
			summary.Rejected++
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].QualityScore > accepted[j].QualityScore
	})
	if len(accepted) > opts.Limit {
		accepted = accepted[:opts.Limit]
	}
	summary.Accepted = len(accepted)

	progress(100)
	zap.L().Info("discovery run complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("errors", len(summary.Errors)),
	)
	return accepted, summary, nil
}

// quotas splits the requested limit between channels per the mode. Hybrid
// oversamples slightly so dedupe and filtering losses still fill the limit.
func (o *Orchestrator) quotas(opts Options) (generated, scraped int) {
	switch opts.Mode {
	case ModeGenerated:
		return opts.Limit, 0
	case ModeScraped:
		return 0, opts.Limit
	}
	generated = (opts.Limit*opts.GeneratedPct + 99) / 100
	scraped = opts.Limit - opts.Limit*opts.GeneratedPct/100
	return generated, scraped
}

func (o *Orchestrator) cancelled(opts Options) bool {
	return opts.CancelRequested != nil && opts.CancelRequested()
}

// genShare returns the generated channel's slice of a progress span.
func genShare(opts Options, span int) int {
	switch opts.Mode {
	case ModeGenerated:
		return span
	case ModeScraped:
		return 0
	}
	return span * opts.GeneratedPct / 100
}

func scale(done, total, span int) int {
	if total <= 0 {
		return span
	}
	if done > total {
		done = total
	}
	return done * span / total
}
