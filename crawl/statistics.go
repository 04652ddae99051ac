package crawl

import "time"

// Statistics summarizes one traversal.
type Statistics struct {
	Visited      int // nodes recorded in the result
	Discovered   int // nodes that entered the visited set, start included
	Lookups      int // neighbor lookups performed
	LookupErrors int // lookups that failed and counted as no neighbors
	Duplicates   int // neighbors skipped because they were already scheduled
	DeepestLevel int // largest depth recorded
	Workers      int
	Elapsed      time.Duration
}

// Result is the outcome of one traversal.
type Result struct {
	RunID      string
	Start      string
	MaxDepth   int
	Nodes      []string
	Statistics Statistics
}
