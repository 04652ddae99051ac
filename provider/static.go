package provider

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// MapProvider serves neighbors from an in-memory adjacency map. It is
// read-only after construction and safe for concurrent use.
type MapProvider struct {
	adjacency map[string][]string
}

// NewMapProvider copies adjacency into a new provider.
func NewMapProvider(adjacency map[string][]string) *MapProvider {
	m := &MapProvider{adjacency: make(map[string][]string, len(adjacency))}
	for node, neighbors := range adjacency {
		m.adjacency[node] = append([]string(nil), neighbors...)
	}
	return m
}

// NeighborsOf returns a copy of the node's neighbors. Unknown nodes have none.
func (m *MapProvider) NeighborsOf(node string) ([]string, error) {
	return append([]string(nil), m.adjacency[node]...), nil
}

// Nodes returns every node that has an adjacency entry, sorted.
func (m *MapProvider) Nodes() []string {
	out := make([]string, 0, len(m.adjacency))
	for node := range m.adjacency {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// GraphFile is the TOML layout of a static graph:
//
//	[neighbors]
//	A = ["B", "C"]
//	"Tom Hanks" = ["Forrest Gump"]
type GraphFile struct {
	Neighbors map[string][]string `toml:"neighbors"`
}

func parseGraph(r io.Reader) (*GraphFile, error) {
	var out GraphFile
	_, err := toml.NewDecoder(r).Decode(&out)
	return &out, err
}

// LoadGraphFile reads a TOML graph file into a MapProvider.
func LoadGraphFile(path string) (*MapProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := parseGraph(f)
	if err != nil {
		return nil, fmt.Errorf("parsing graph file %s: %w", path, err)
	}
	return NewMapProvider(g.Neighbors), nil
}
