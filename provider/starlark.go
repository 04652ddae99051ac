package provider

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// NeighborsFunc is the function a graph script must define.
const NeighborsFunc = "neighbors"

// StarlarkProvider answers lookups by calling neighbors(node) in a Starlark
// script. The script's globals are frozen and shared; the thread is owned by
// a single worker.
type StarlarkProvider struct {
	name   string
	fn     starlark.Callable
	thread *starlark.Thread
}

// NewStarlarkFactory compiles the script at path once and returns a factory
// that gives every worker its own interpreter thread.
func NewStarlarkFactory(path string) (Factory, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compileStarlark(path, src)
}

// NewStarlarkFactoryFromSource is NewStarlarkFactory for an in-memory script.
func NewStarlarkFactoryFromSource(name string, src string) (Factory, error) {
	return compileStarlark(name, []byte(src))
}

func compileStarlark(name string, src []byte) (Factory, error) {
	opts := syntax.FileOptions{
		Set:       true,
		While:     true,
		Recursion: true,
	}
	loader := newStarlarkThread(name, -1)
	globals, err := starlark.ExecFileOptions(&opts, loader, name, src, nil)
	if err != nil {
		return nil, fmt.Errorf("loading graph script %s: %w", name, err)
	}
	globals.Freeze()

	v, ok := globals[NeighborsFunc]
	if !ok {
		return nil, fmt.Errorf("graph script %s does not define %s(node)", name, NeighborsFunc)
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("graph script %s: %s is a %s, not a function", name, NeighborsFunc, v.Type())
	}

	return func(workerID int) (NeighborProvider, error) {
		return &StarlarkProvider{
			name:   name,
			fn:     fn,
			thread: newStarlarkThread(name, workerID),
		}, nil
	}, nil
}

func newStarlarkThread(name string, workerID int) *starlark.Thread {
	return &starlark.Thread{
		Name: fmt.Sprintf("%s#%d", name, workerID),
		Print: func(_ *starlark.Thread, msg string) {
			log.Debug().Str("script", name).Int("worker", workerID).Msg(msg)
		},
	}
}

// NeighborsOf calls neighbors(node). Non-string elements of the returned
// iterable are skipped; None means no neighbors.
func (p *StarlarkProvider) NeighborsOf(node string) ([]string, error) {
	v, err := starlark.Call(p.thread, p.fn, starlark.Tuple{starlark.String(node)}, nil)
	if err != nil {
		return nil, &LookupError{Node: node, Err: err}
	}
	if v == starlark.None {
		return nil, nil
	}

	iter := starlark.Iterate(v)
	if iter == nil {
		return nil, lookupErrorf(node, "%s: %s(%q) returned %s, want an iterable", p.name, NeighborsFunc, node, v.Type())
	}
	defer iter.Done()

	var out []string
	var elem starlark.Value
	for iter.Next(&elem) {
		if s, ok := starlark.AsString(elem); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
