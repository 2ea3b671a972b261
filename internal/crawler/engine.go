package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/creepy/internal/metrics"
)

// Engine expands the crawl frontier level by level. Each level is admitted
// against the visited set in a single pass, then fetched concurrently; the
// next level starts only after every fetch of the current one returned.
type Engine struct {
	cfg        Config
	fetcher    Fetcher
	classifier *Classifier
	policy     *Policy
	pauser     pauseController
	onHit      HitHandler
	logger     *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithHitHandler registers h to be called for every accumulated hit.
func WithHitHandler(h HitHandler) Option {
	return func(e *Engine) {
		e.onHit = h
	}
}

// NewEngine wires the crawl engine and validates that no seed is rejected by
// the policy, before any network activity takes place.
func NewEngine(cfg Config, fetcher Fetcher, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("crawler: fetcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := NewPolicy(cfg)
	if err := policy.ValidateSeeds(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		fetcher:    fetcher,
		classifier: NewClassifier(cfg.MatchSelector, cfg.LinkSelector, logger),
		policy:     policy,
		pauser:     &timerPauseController{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if cfg.RespectRobotsTxt {
		logger.Warn("respect_robots_txt is set but robots.txt is not consulted")
	}
	return e, nil
}

// Run crawls from the configured seeds until the frontier is exhausted.
// On context cancellation it returns what was accumulated so far together
// with the context error. Fetches aborted by the cancellation are left out
// of both Hits and Misses.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	visited := NewVisitedSet()
	var result Result

	frontier := append([]*url.URL(nil), e.cfg.Seeds...)
	for level := 0; ; level++ {
		if err := ctx.Err(); err != nil {
			result.Visited = visited.Len()
			return result, err
		}
		admitted := e.admit(frontier, visited)
		if len(admitted) == 0 {
			break
		}
		metrics.SetFrontierLevel(level)
		e.logger.Debug("Dispatching level", zap.Int("level", level), zap.Int("urls", len(admitted)))

		crawls := e.dispatch(ctx, admitted)
		frontier = e.accumulate(ctx, &result, crawls)
		result.Levels++
	}
	result.Visited = visited.Len()
	return result, nil
}

// admit drops ineligible and already visited candidates and marks the
// survivors visited. It must not run concurrently with itself.
func (e *Engine) admit(candidates []*url.URL, visited *VisitedSet) []*url.URL {
	admitted := make([]*url.URL, 0, len(candidates))
	for _, u := range candidates {
		if !e.policy.Eligible(u) {
			metrics.ObserveDroppedLink("policy")
			continue
		}
		if !visited.MarkIfNew(KeyOf(u)) {
			continue
		}
		admitted = append(admitted, u)
	}
	return admitted
}

func (e *Engine) dispatch(ctx context.Context, urls []*url.URL) []SingleCrawl {
	crawls := make([]SingleCrawl, len(urls))
	var g errgroup.Group
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			crawls[i] = e.fetchAndClassify(ctx, u)
			return nil
		})
	}
	_ = g.Wait() // per-URL failures are recorded as misses, never returned
	return crawls
}

func (e *Engine) accumulate(ctx context.Context, result *Result, crawls []SingleCrawl) []*url.URL {
	var next []*url.URL
	for _, c := range crawls {
		if c.Canceled {
			continue
		}
		raw := c.URL.String()
		if c.IsHit {
			result.Hits = append(result.Hits, raw)
			if e.onHit != nil {
				e.onHit(ctx, raw)
			}
		} else {
			result.Misses = append(result.Misses, raw)
		}
		next = append(next, c.Links...)
	}
	return next
}

// fetchAndClassify fetches u and classifies it. The politeness delay is
// observed after every attempt, successful or not.
func (e *Engine) fetchAndClassify(ctx context.Context, u *url.URL) SingleCrawl {
	defer e.pauser.Pause(ctx, e.cfg.Period)

	logger := e.logger.With(zap.String("url", u.String()))
	logger.Info("Crawling")
	start := time.Now()

	site := e.siteLabel(u)
	page, err := e.fetcher.Fetch(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("Request canceled", zap.Error(err))
			return SingleCrawl{URL: u, Canceled: true}
		}
		logger.Error("Request failed", zap.Error(err))
		metrics.ObservePage(site, metrics.OutcomeError, time.Since(start))
		return SingleCrawl{URL: u}
	}

	isHit, links, err := e.classifier.Classify(u, page)
	if err != nil {
		logger.Error("Response body unusable", zap.Error(err))
		metrics.ObservePage(site, metrics.OutcomeError, time.Since(start))
		return SingleCrawl{URL: u}
	}

	outcome := metrics.OutcomeMiss
	if isHit {
		outcome = metrics.OutcomeHit
	}
	metrics.ObservePage(site, outcome, time.Since(start))
	metrics.ObserveLinks(len(links))
	logger.Debug("Classified page",
		zap.Bool("hit", isHit),
		zap.Int("links", len(links)),
		zap.Int("status_code", page.StatusCode),
		zap.Int("bytes", page.ContentLength()),
	)
	return SingleCrawl{URL: u, IsHit: isHit, Links: links}
}

// siteLabel keeps the metrics site label bounded: seed hosts are reported
// by name, every other host shares metrics.OtherSite.
func (e *Engine) siteLabel(u *url.URL) string {
	if e.policy.inSeedDomains(u) {
		return metrics.SanitizeSite(u.String())
	}
	return metrics.OtherSite
}
