package crawl

import (
	"fmt"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/timewinder-dev/crawlgraph/provider"
	"github.com/timewinder-dev/crawlgraph/queue"
)

// Phase is a step of a run's lifecycle.
type Phase int

const (
	PhaseIdle     Phase = iota // providers being built
	PhaseSeeded                // start node visited and queued
	PhaseRunning               // workers launched
	PhaseDraining              // waiting for the unfinished count to reach zero
	PhaseClosed                // queue closed, idle workers exiting
	PhaseDone                  // workers joined, providers released
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSeeded:
		return "seeded"
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseClosed:
		return "closed"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Config describes a traversal engine.
type Config struct {
	MaxDepth int
	Workers  int

	// Providers builds one neighbor provider per worker.
	Providers provider.Factory

	Reporter Reporter
	Metrics  *Metrics

	// OnPhase, if set, is called on every lifecycle transition of every run.
	OnPhase func(Phase)
}

func (c *Config) validate() error {
	if err := ValidateLimits(c.MaxDepth, c.Workers); err != nil {
		return err
	}
	if c.Providers == nil {
		return fmt.Errorf("%w: no neighbor provider", ErrConfiguration)
	}
	return nil
}

// MultiThreadEngine runs a depth-bounded BFS with a fixed pool of workers
// sharing one blocking frontier.
type MultiThreadEngine struct {
	cfg Config
}

// NewMultiThread validates cfg and creates an engine. The engine holds no
// per-run state and may run several traversals at once.
func NewMultiThread(cfg Config) (*MultiThreadEngine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Reporter = reporterOrSilent(cfg.Reporter)
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	return &MultiThreadEngine{cfg: cfg}, nil
}

// multiRun is a traversal plus the frontier and worker pool driving it.
type multiRun struct {
	*traversal
	queue   *queue.BlockingQueue[WorkItem]
	execWg  sync.WaitGroup
	onPhase func(Phase)
}

func (r *multiRun) setPhase(p Phase) {
	r.logger.Debug().Stringer("phase", p).Msg("Traversal phase")
	if r.onPhase != nil {
		r.onPhase(p)
	}
}

// Run traverses from start and returns every node within the depth bound.
// Lookup failures never abort the run; only provider construction can fail.
func (m *MultiThreadEngine) Run(start string) (*Result, error) {
	r := &multiRun{
		traversal: newTraversal(start, m.cfg.MaxDepth, m.cfg.Metrics),
		queue:     queue.New[WorkItem](),
		onPhase:   m.cfg.OnPhase,
	}
	r.setPhase(PhaseIdle)

	providers, err := m.buildProviders(r)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	r.visited.TryVisit(start)
	r.push(NewWorkItem(start, 0))
	r.setPhase(PhaseSeeded)

	for i, p := range providers {
		r.execWg.Add(1)
		go r.execWorker(i, p)
	}
	r.setPhase(PhaseRunning)

	// Join, then Close, then wait for workers. Closing first could let idle
	// workers exit while another is still about to push children.
	r.setPhase(PhaseDraining)
	r.queue.Join()

	r.queue.Close()
	r.setPhase(PhaseClosed)

	r.execWg.Wait()
	closeProviders(r.traversal, providers)
	r.setPhase(PhaseDone)

	res := r.buildResult(len(providers), time.Since(began))
	m.cfg.Metrics.Runs.Inc()
	r.logger.Info().
		Int("visited", res.Statistics.Visited).
		Int("lookups", res.Statistics.Lookups).
		Int("lookup_errors", res.Statistics.LookupErrors).
		Dur("elapsed", res.Statistics.Elapsed).
		Msg("Traversal complete")
	m.cfg.Reporter.Printf("%s", formatRunSummary(res))
	return res, nil
}

// buildProviders creates one provider per worker. If any fails, the ones
// already built are closed and no worker is started.
func (m *MultiThreadEngine) buildProviders(r *multiRun) ([]provider.NeighborProvider, error) {
	providers := make([]provider.NeighborProvider, 0, m.cfg.Workers)
	for i := 0; i < m.cfg.Workers; i++ {
		p, err := m.cfg.Providers(i)
		if err == nil && p == nil {
			err = fmt.Errorf("factory returned no provider")
		}
		if err != nil {
			closeProviders(r.traversal, providers)
			m.cfg.Reporter.Printf("%s could not start worker %d: %v\n", color.Red.Sprint("✗"), i, err)
			return nil, fmt.Errorf("building neighbor provider for worker %d: %w", i, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func closeProviders(t *traversal, providers []provider.NeighborProvider) {
	for i, p := range providers {
		if err := provider.Close(p); err != nil {
			t.logger.Warn().Err(err).Int("worker", i).Msg("Closing neighbor provider")
		}
	}
}

func (r *multiRun) push(item WorkItem) {
	r.queue.Push(item)
	r.metrics.Frontier.Inc()
}

// execWorker pops work items until the queue is closed and empty.
func (r *multiRun) execWorker(workerID int, p provider.NeighborProvider) {
	defer r.execWg.Done()

	for {
		item, ok := r.queue.Pop()
		if !ok {
			// Queue closed, traversal complete
			return
		}
		r.metrics.Frontier.Dec()

		r.processWorkItem(workerID, p, item, r.push)

		// Children were pushed above, so the count cannot reach zero early
		r.queue.TaskDone()
	}
}
