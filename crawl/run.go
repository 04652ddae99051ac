// Package crawl implements a concurrent, depth-bounded breadth-first
// traversal of a graph whose adjacency is discovered one node at a time
// through a provider.NeighborProvider.
//
// Workers share a blocking frontier (queue.BlockingQueue), a sharded
// VisitedSet and a ResultCollector. A run ends with a two-phase shutdown:
// the orchestrator joins on the frontier's unfinished count, closes the
// frontier so idle workers exit, then waits for the workers.
package crawl

import "github.com/timewinder-dev/crawlgraph/provider"

// Engine is implemented by both traversal engines.
type Engine interface {
	Run(start string) (*Result, error)
}

var (
	_ Engine = (*MultiThreadEngine)(nil)
	_ Engine = (*SingleThreadEngine)(nil)
)

// RunBFS visits every node within maxDepth hops of start using workers
// concurrent workers, each with its own provider from providers. The
// returned slice has one entry per visited node in no particular order.
func RunBFS(start string, maxDepth, workers int, providers provider.Factory) ([]string, error) {
	m, err := NewMultiThread(Config{
		MaxDepth:  maxDepth,
		Workers:   workers,
		Providers: providers,
	})
	if err != nil {
		return nil, err
	}
	res, err := m.Run(start)
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}
