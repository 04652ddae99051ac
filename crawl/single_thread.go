package crawl

import (
	"fmt"
	"time"

	"github.com/timewinder-dev/crawlgraph/provider"
)

// SingleThreadEngine runs the same depth-bounded BFS on the calling
// goroutine with a plain slice queue. Results are in BFS order.
type SingleThreadEngine struct {
	maxDepth  int
	providers provider.Factory
	reporter  Reporter
	metrics   *Metrics
}

// InitSingleThread creates a sequential engine. cfg.Workers is ignored.
func InitSingleThread(cfg Config) (*SingleThreadEngine, error) {
	if err := ValidateLimits(cfg.MaxDepth, 1); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		return nil, fmt.Errorf("%w: no neighbor provider", ErrConfiguration)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	return &SingleThreadEngine{
		maxDepth:  cfg.MaxDepth,
		providers: cfg.Providers,
		reporter:  reporterOrSilent(cfg.Reporter),
		metrics:   cfg.Metrics,
	}, nil
}

// Run traverses from start.
func (s *SingleThreadEngine) Run(start string) (*Result, error) {
	t := newTraversal(start, s.maxDepth, s.metrics)
	p, err := s.providers(0)
	if err == nil && p == nil {
		err = fmt.Errorf("factory returned no provider")
	}
	if err != nil {
		return nil, fmt.Errorf("building neighbor provider: %w", err)
	}
	defer closeProviders(t, []provider.NeighborProvider{p})

	began := time.Now()
	t.visited.TryVisit(start)
	pending := []WorkItem{NewWorkItem(start, 0)}
	push := func(item WorkItem) {
		pending = append(pending, item)
	}

	for len(pending) != 0 {
		item := pending[0]
		pending = pending[1:]
		t.processWorkItem(0, p, item, push)
	}

	res := t.buildResult(1, time.Since(began))
	s.metrics.Runs.Inc()
	t.logger.Info().
		Int("visited", res.Statistics.Visited).
		Int("lookups", res.Statistics.Lookups).
		Int("lookup_errors", res.Statistics.LookupErrors).
		Msg("Sequential traversal complete")
	s.reporter.Printf("%s", formatRunSummary(res))
	return res, nil
}
