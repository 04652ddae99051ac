package crawl

import "sync"

// ResultCollector accumulates the nodes visited within the depth bound.
// Order reflects worker interleaving, not graph order.
type ResultCollector struct {
	mu    sync.Mutex
	nodes []string
}

// NewResultCollector creates an empty collector.
func NewResultCollector() *ResultCollector {
	return &ResultCollector{}
}

// Record appends node.
func (r *ResultCollector) Record(node string) {
	r.mu.Lock()
	r.nodes = append(r.nodes, node)
	r.mu.Unlock()
}

// Drain returns a copy of everything recorded so far.
func (r *ResultCollector) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Len returns the number of recorded nodes.
func (r *ResultCollector) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}
