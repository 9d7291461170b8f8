package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/gateway"
	"github.com/scout-group/discover-cli/internal/model"
)

// focusAreas rotate across batches so repeated prompts don't converge on
// the same well-known names.
var focusAreas = []string{
	"agritech and climate tech",
	"biotech and digital health",
	"fintech and insurtech",
	"developer tools and AI infrastructure",
	"robotics and advanced manufacturing",
	"edtech and university spinouts",
}

// maxBatchSize is a hard cap; larger prompts degrade answer quality.
const maxBatchSize = 8

// generate asks the completion gateway for candidates in batches, excluding
// names from earlier batches and rotating the topical focus.
func (o *Orchestrator) generate(ctx context.Context, quota int, opts Options, report func(done, total int)) ([]model.CandidateRecord, error) {
	if o.gateway == nil {
		return nil, eris.New("discovery: generated channel not configured")
	}

	size := o.batchSize
	if size <= 0 || size > maxBatchSize {
		size = maxBatchSize
	}

	var out []model.CandidateRecord
	seen := make(map[string]struct{})
	batches := (quota + size - 1) / size

	for b := 0; b < batches; b++ {
		if o.cancelled(opts) {
			return out, ErrCancelled
		}

		want := quota - len(out)
		if want <= 0 {
			break
		}
		if want > size {
			want = size
		}

		prompt := buildPrompt(want, opts.Country, focusAreas[b%len(focusAreas)], priorNames(seen))
		resp, err := o.gateway.Complete(ctx, gateway.Request{
			Messages: []gateway.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			if len(out) > 0 {
				// Partial yield beats a hard failure.
				zap.L().Warn("generation batch failed, keeping partial results",
					zap.Int("batch", b+1),
					zap.Error(err),
				)
				break
			}
			return nil, eris.Wrap(err, "discovery: generate candidates")
		}

		parsed := parseCandidateJSON(resp.Text)
		for _, c := range parsed {
			// The model may over-deliver; never exceed the quota.
			if len(out) >= quota {
				break
			}
			key := strings.ToLower(strings.TrimSpace(c.Name))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			c.SourceType = model.SourceGenerated
			out = append(out, c)
		}
		report(len(out), quota)
	}
	return out, nil
}

func buildPrompt(count int, country, focus string, exclude []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List %d real, currently operating startups or university spinouts in %s.\n", count, focus)
	if country != "" {
		fmt.Fprintf(&b, "Only include organizations headquartered in %s.\n", country)
	}
	if len(exclude) > 0 {
		fmt.Fprintf(&b, "Do not include any of: %s.\n", strings.Join(exclude, ", "))
	}
	b.WriteString(`Respond with a JSON array only, no prose. Each element:
{"name": "", "website": "", "description": "", "city": "", "country": "", "industry_tags": [], "funding_signal": false, "funding_amount": ""}`)
	return b.String()
}

// priorNames flattens the exclusion set, capped so the prompt stays small.
func priorNames(seen map[string]struct{}) []string {
	const maxExclusions = 40
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
		if len(names) >= maxExclusions {
			break
		}
	}
	return names
}
