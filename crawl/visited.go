package crawl

import (
	"sync"

	"github.com/dgryski/go-farm"
)

const visitedShards = 32

// VisitedSet records every node that has been scheduled. It only grows.
// Nodes are spread over independently locked shards by farm hash.
type VisitedSet struct {
	shards [visitedShards]visitedShard
}

type visitedShard struct {
	mu    sync.Mutex
	nodes map[string]struct{}
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	v := &VisitedSet{}
	for i := range v.shards {
		v.shards[i].nodes = make(map[string]struct{})
	}
	return v
}

func (v *VisitedSet) shard(node string) *visitedShard {
	return &v.shards[farm.Hash64([]byte(node))%visitedShards]
}

// TryVisit inserts node if absent. It returns true only for the caller that
// performed the insertion; that caller owns scheduling the node.
func (v *VisitedSet) TryVisit(node string) bool {
	s := v.shard(node)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[node]; ok {
		return false
	}
	s.nodes[node] = struct{}{}
	return true
}

// Has reports whether node has been visited.
func (v *VisitedSet) Has(node string) bool {
	s := v.shard(node)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[node]
	return ok
}

// Len returns the number of visited nodes. Shards are counted one at a time,
// so the total is only exact once no TryVisit is running.
func (v *VisitedSet) Len() int {
	n := 0
	for i := range v.shards {
		s := &v.shards[i]
		s.mu.Lock()
		n += len(s.nodes)
		s.mu.Unlock()
	}
	return n
}
