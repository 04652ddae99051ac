package crawl

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/crawlgraph/provider"
)

// traversal is the state of one run. Nothing in it outlives the run, so
// concurrent runs on one engine never share a frontier or visited set.
type traversal struct {
	id       string
	start    string
	maxDepth int
	logger   zerolog.Logger
	metrics  *Metrics

	visited *VisitedSet
	result  *ResultCollector

	// Statistics (atomic)
	lookups      int64
	lookupErrors int64
	duplicates   int64
	deepest      int64
}

func newTraversal(start string, maxDepth int, metrics *Metrics) *traversal {
	id := uuid.NewString()
	return &traversal{
		id:       id,
		start:    start,
		maxDepth: maxDepth,
		logger:   log.With().Str("run", id).Str("start", start).Logger(),
		metrics:  metrics,
		visited:  NewVisitedSet(),
		result:   NewResultCollector(),
	}
}

// processWorkItem performs one traversal step for item: record it if it is
// within the bound, and schedule its unseen neighbors if it may be expanded.
// push is only called for nodes this worker won in the visited set.
func (t *traversal) processWorkItem(workerID int, p provider.NeighborProvider, item WorkItem, push func(WorkItem)) {
	if item.Depth <= t.maxDepth {
		t.result.Record(item.Node)
		t.metrics.Visited.Inc()
		t.noteDepth(item.Depth)
	}
	if item.Depth >= t.maxDepth {
		return
	}

	for _, neighbor := range t.lookup(workerID, p, item.Node) {
		if t.visited.TryVisit(neighbor) {
			push(NewWorkItem(neighbor, item.Depth+1))
		} else {
			atomic.AddInt64(&t.duplicates, 1)
		}
	}
}

// lookup fetches neighbors outside every lock. A failed lookup is logged and
// counts as a node without neighbors.
func (t *traversal) lookup(workerID int, p provider.NeighborProvider, node string) []string {
	began := time.Now()
	neighbors, err := p.NeighborsOf(node)
	t.metrics.observeLookup(time.Since(began), err)
	atomic.AddInt64(&t.lookups, 1)

	if err != nil {
		atomic.AddInt64(&t.lookupErrors, 1)
		t.logger.Warn().Err(err).Int("worker", workerID).Str("node", node).Msg("Neighbor lookup failed, continuing without its neighbors")
		return nil
	}
	if e := t.logger.Trace(); e.Enabled() {
		e.Int("worker", workerID).Str("node", node).Int("neighbors", len(neighbors)).Msg("Expanded node")
	}
	return neighbors
}

func (t *traversal) noteDepth(depth int) {
	d := int64(depth)
	for {
		cur := atomic.LoadInt64(&t.deepest)
		if d <= cur || atomic.CompareAndSwapInt64(&t.deepest, cur, d) {
			return
		}
	}
}

// buildResult constructs the final Result once every worker has stopped.
func (t *traversal) buildResult(workers int, elapsed time.Duration) *Result {
	nodes := t.result.Drain()
	return &Result{
		RunID:    t.id,
		Start:    t.start,
		MaxDepth: t.maxDepth,
		Nodes:    nodes,
		Statistics: Statistics{
			Visited:      len(nodes),
			Discovered:   t.visited.Len(),
			Lookups:      int(atomic.LoadInt64(&t.lookups)),
			LookupErrors: int(atomic.LoadInt64(&t.lookupErrors)),
			Duplicates:   int(atomic.LoadInt64(&t.duplicates)),
			DeepestLevel: int(atomic.LoadInt64(&t.deepest)),
			Workers:      workers,
			Elapsed:      elapsed,
		},
	}
}
