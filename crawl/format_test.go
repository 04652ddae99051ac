package crawl

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/crawlgraph/provider"
)

func TestMain(m *testing.M) {
	color.Disable()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	m.Run()
}

func TestFormatStatistics(t *testing.T) {
	out := FormatStatistics(Statistics{
		Visited:      4,
		Discovered:   4,
		Lookups:      3,
		LookupErrors: 1,
		Duplicates:   1,
		DeepestLevel: 2,
		Workers:      8,
	})
	assert.Contains(t, out, "Nodes visited: 4")
	assert.Contains(t, out, "Neighbor lookups: 3")
	assert.Contains(t, out, "Failed lookups: 1")
	assert.Contains(t, out, "Deepest level reached: 2")
	assert.Contains(t, out, "Workers: 8")
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(&Result{
		Start:      "Tom Hanks",
		MaxDepth:   2,
		Nodes:      []string{"Tom Hanks", "Big"},
		Statistics: Statistics{Elapsed: 1500 * time.Millisecond},
	})
	assert.Contains(t, out, "Starting BFS from: Tom Hanks with depth 2")
	assert.Contains(t, out, "- Tom Hanks\n- Big\n")
	assert.Contains(t, out, "Time passed: 1.500000 seconds")
	assert.Contains(t, out, "Nodes found: 2")
}

func TestReporters(t *testing.T) {
	var buf bytes.Buffer
	m, err := NewMultiThread(Config{
		MaxDepth:  1,
		Workers:   2,
		Providers: provider.StaticFactory(provider.NewMapProvider(diamond)),
		Reporter:  &ColorReporter{Writer: &buf},
	})
	require.NoError(t, err)
	_, err = m.Run("A")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "✓ A: 3 nodes within depth 1"), buf.String())

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.Disabled)
	var logged bytes.Buffer
	lr := &LogReporter{Logger: zerolog.New(&logged)}
	lr.Printf("  hello %d\n", 1)
	assert.Contains(t, logged.String(), `"message":"hello 1"`)
	assert.Contains(t, logged.String(), `"level":"info"`)

	(&SilentReporter{}).Printf("ignored %d", 1)
}
