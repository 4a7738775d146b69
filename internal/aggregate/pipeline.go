package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
)

// Store is the persisted registry the pipeline reads its baseline from and
// writes its result to.
type Store interface {
	LoadBaseline() (allow, disposable []string, err error)
	Save(a *registry.Artifact) error
}

// Pipeline merges untrusted sources into the registry artifact.
type Pipeline struct {
	fetcher     Fetcher
	store       Store
	tlds        domain.TLDSet
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	now         func() time.Time
	timeout     time.Duration
	concurrency int
}

const defaultFetchTimeout = 30 * time.Second

type Option func(*Pipeline)

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock overrides the clock used for the artifact timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithFetchTimeout bounds each source fetch separately. Non-positive
// durations keep the default.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithConcurrency limits the number of sources fetched at once; 0 means
// all of them.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func New(fetcher Fetcher, store Store, tlds domain.TLDSet, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		store:   store,
		tlds:    tlds,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithField("component", "aggregate")
	return p
}

type sourceResult struct {
	src        SourceDescriptor
	candidates []string
	err        error
	took       time.Duration
}

// Run rebuilds the artifact and persists it. Nothing is written when the
// rebuild fails.
func (p *Pipeline) Run(ctx context.Context, sources []SourceDescriptor) (*registry.Artifact, error) {
	a, err := p.Rebuild(ctx, sources)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(a); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	p.log.Info("aggregate: artifact written")
	return a, nil
}

// Rebuild computes (baseline ∪ block candidates) \ allow from the persisted
// baseline and a fresh fetch of every source. Source failures are logged
// and treated as empty sources.
func (p *Pipeline) Rebuild(ctx context.Context, sources []SourceDescriptor) (*registry.Artifact, error) {
	baseAllow, baseDisposable, err := p.store.LoadBaseline()
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	allow := make(map[string]struct{}, len(baseAllow))
	block := make(map[string]struct{}, len(baseDisposable))
	p.collect(allow, baseAllow)
	p.collect(block, baseDisposable)
	startSize := len(block)

	p.log.WithFields(logrus.Fields{
		"disposable": len(block),
		"allow":      len(allow),
		"sources":    len(sources),
	}).Info("aggregate: baseline loaded")

	results := p.fetchAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate aborted: %w", err)
	}

	// Collect everything first; allow precedence is applied once below so
	// the outcome does not depend on which source finished first.
	for _, res := range results {
		log := p.log.WithFields(logrus.Fields{
			"source": res.src.Name,
			"url":    res.src.URL,
			"role":   res.src.Role.String(),
			"took":   res.took.String(),
		})

		if res.err != nil {
			log.WithError(res.err).Warn("aggregate: source fetch failed")
			if p.metrics != nil {
				p.metrics.ObserveSource(res.src.Name, false, 0, 0)
			}
			continue
		}

		target := block
		if res.src.Role == RoleAllow {
			target = allow
		}
		accepted, rejected := p.collect(target, res.candidates)

		log.WithFields(logrus.Fields{
			"fetched":  len(res.candidates),
			"accepted": accepted,
			"rejected": rejected,
		}).Info("aggregate: source fetched")
		if p.metrics != nil {
			p.metrics.ObserveSource(res.src.Name, true, accepted, rejected)
		}
	}

	for d := range allow {
		delete(block, d)
	}

	a := &registry.Artifact{
		Disposable:   sortedKeys(block),
		Allow:        sortedKeys(allow),
		BlockSources: sourceURLs(sources, RoleBlock),
		AllowSources: sourceURLs(sources, RoleAllow),
		GeneratedAt:  p.now().UTC(),
	}

	p.log.WithFields(logrus.Fields{
		"added":      len(a.Disposable) - startSize,
		"disposable": len(a.Disposable),
		"allow":      len(a.Allow),
	}).Info("aggregate: registry rebuilt")
	if p.metrics != nil {
		p.metrics.SetRegistrySize(len(a.Disposable), len(a.Allow))
	}
	return a, nil
}

// fetchAll fetches every source concurrently. Each goroutine owns one slot
// of the result slice and never returns an error, so one failing source
// cannot cancel its siblings.
func (p *Pipeline) fetchAll(ctx context.Context, sources []SourceDescriptor) []sourceResult {
	results := make([]sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, p.timeout)
			defer cancel()

			start := time.Now()
			candidates, err := p.fetcher.Fetch(fctx, src)
			results[i] = sourceResult{
				src:        src,
				candidates: candidates,
				err:        err,
				took:       time.Since(start),
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// collect normalizes and validates candidates into set. Invalid candidates
// are counted, not reported.
func (p *Pipeline) collect(set map[string]struct{}, candidates []string) (accepted, rejected int) {
	for _, c := range candidates {
		d := domain.Normalize(c)
		if !domain.ValidateDomain(d, p.tlds) {
			rejected++
			continue
		}
		set[d] = struct{}{}
		accepted++
	}
	return accepted, rejected
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sourceURLs(sources []SourceDescriptor, role Role) []string {
	var out []string
	for _, s := range sources {
		if s.Role == role {
			out = append(out, s.URL)
		}
	}
	return out
}
