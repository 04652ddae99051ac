// Package provider resolves a node to its neighbor list. The traversal engine
// only sees the NeighborProvider interface; everything about how neighbors
// are fetched (HTTP service, graph files, scripts, caching) lives here.
package provider

import (
	"fmt"
	"io"
)

// NeighborProvider returns the neighbors of a single node. Failures are
// reported as *LookupError.
type NeighborProvider interface {
	NeighborsOf(node string) ([]string, error)
}

// Factory builds the provider owned by one worker. Providers built by a
// factory are never shared between workers; if one implements io.Closer it is
// closed when the worker's run finishes.
type Factory func(workerID int) (NeighborProvider, error)

// LookupError reports that the neighbors of Node could not be fetched or
// parsed.
type LookupError struct {
	Node string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Node, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// lookupErrorf builds a LookupError for node from a format string.
func lookupErrorf(node string, format string, args ...interface{}) *LookupError {
	return &LookupError{Node: node, Err: fmt.Errorf(format, args...)}
}

// StaticFactory hands the same provider to every worker. Only use it with
// providers that are safe for concurrent use and hold no per-worker handles.
func StaticFactory(p NeighborProvider) Factory {
	return func(int) (NeighborProvider, error) {
		return p, nil
	}
}

// Close closes p if it implements io.Closer.
func Close(p NeighborProvider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
