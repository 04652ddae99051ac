package crawl

// WorkItem is one frontier entry: a node and its hop distance from the start.
type WorkItem struct {
	Node  string
	Depth int
}

// NewWorkItem creates a new WorkItem for node at depth.
func NewWorkItem(node string, depth int) WorkItem {
	return WorkItem{
		Node:  node,
		Depth: depth,
	}
}
