package scorer

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scout-group/discover-cli/internal/model"
)

// Verifier probes candidate websites for liveness. Verification failures
// are recorded, never fatal: a dead site just misses the verified bonus.
type Verifier struct {
	client      *http.Client
	concurrency int
	now         func() time.Time
}

// NewVerifier builds a Verifier. concurrency bounds parallel probes
// (default 5); timeout bounds each probe (default 5s).
func NewVerifier(concurrency int, timeout time.Duration) *Verifier {
	if concurrency <= 0 {
		concurrency = 5
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		concurrency: concurrency,
		now:         time.Now,
	}
}

// VerifyAll probes every record with a valid website in place, marking the
// ones that answer and recomputing their scores. The slice order is
// preserved.
func (v *Verifier) VerifyAll(ctx context.Context, records []model.CandidateRecord) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i := range records {
		if !probeable(records[i].Website) {
			continue
		}
		rec := &records[i]
		g.Go(func() error {
			if v.probe(ctx, rec.Website) {
				rec.Verified = true
				t := v.now().UTC()
				rec.LastVerifiedAt = &t
			}
			rec.QualityScore = Compute(*rec)
			return nil
		})
	}
	_ = g.Wait()

	// Records without a probeable website still need scoring.
	for i := range records {
		if !probeable(records[i].Website) {
			records[i].QualityScore = Compute(records[i])
		}
	}
}

// probe issues a HEAD request, falling back to GET when the server rejects
// HEAD. Any 2xx or 3xx status counts as alive.
func (v *Verifier) probe(ctx context.Context, website string) bool {
	status, err := v.request(ctx, http.MethodHead, website)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = v.request(ctx, http.MethodGet, website)
	}
	if err != nil {
		zap.L().Debug("website probe failed", zap.String("website", website), zap.Error(err))
		return false
	}
	return status >= 200 && status < 400
}

// probeable is looser than ValidWebsite: anything with an http(s) scheme
// and a host can be probed, even if it would not earn the website bonus.
func probeable(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (v *Verifier) request(ctx context.Context, method, website string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, website, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
