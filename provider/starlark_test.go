package provider

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarlarkProviderFromFile(t *testing.T) {
	f, err := NewStarlarkFactory("../testdata/diamond.star")
	require.NoError(t, err)
	p, err := f(0)
	require.NoError(t, err)

	got, err := p.NeighborsOf("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got)

	got, err = p.NeighborsOf("nowhere")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStarlarkProviderResults(t *testing.T) {
	src := `
def neighbors(node):
    if node == "none":
        return None
    if node == "mixed":
        return ["a", 1, "b", None]
    if node == "tuple":
        return ("x", "y")
    if node == "int":
        return 7
    if node == "fail":
        fail("no such node")
    return [node + "-1", node + "-2"]
`
	f, err := NewStarlarkFactoryFromSource("inline.star", src)
	require.NoError(t, err)
	p, err := f(0)
	require.NoError(t, err)

	testCases := []struct {
		node string
		want []string
	}{
		{"none", nil},
		{"mixed", []string{"a", "b"}},
		{"tuple", []string{"x", "y"}},
		{"q", []string{"q-1", "q-2"}},
	}
	for _, tc := range testCases {
		t.Run(tc.node, func(t *testing.T) {
			got, err := p.NeighborsOf(tc.node)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, node := range []string{"int", "fail"} {
		t.Run(node, func(t *testing.T) {
			_, err := p.NeighborsOf(node)
			var lerr *LookupError
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, node, lerr.Node)
		})
	}
}

func TestStarlarkFactoryErrors(t *testing.T) {
	_, err := NewStarlarkFactoryFromSource("syntax.star", "def neighbors(:\n")
	assert.Error(t, err)

	_, err = NewStarlarkFactoryFromSource("nofn.star", "graph = {}\n")
	assert.ErrorContains(t, err, "does not define")

	_, err = NewStarlarkFactoryFromSource("notfn.star", "neighbors = [1]\n")
	assert.ErrorContains(t, err, "not a function")

	_, err = NewStarlarkFactory("../testdata/does-not-exist.star")
	assert.Error(t, err)
}

func TestStarlarkProviderPerWorkerThreads(t *testing.T) {
	f, err := NewStarlarkFactory("../testdata/diamond.star")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		p, err := f(i)
		require.NoError(t, err)
		wg.Add(1)
		go func(p NeighborProvider) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := p.NeighborsOf("B")
				if err != nil {
					errs <- err
					return
				}
				if len(got) != 1 || got[0] != "D" {
					errs <- errors.New("unexpected neighbors")
					return
				}
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
