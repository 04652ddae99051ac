package crawl

import (
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"
)

const rule = "------------------------------------------------------"

// FormatStatistics formats traversal statistics for display
func FormatStatistics(stats Statistics) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Traversal statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Nodes visited: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Visited))
	b.WriteString(color.Bold.Sprint("Nodes discovered: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Discovered))
	b.WriteString(color.Bold.Sprint("Duplicate neighbors skipped: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Duplicates))
	b.WriteString(color.Bold.Sprint("Deepest level reached: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.DeepestLevel))
	b.WriteString(color.Bold.Sprint("Neighbor lookups: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Lookups))

	b.WriteString(color.Bold.Sprint("Failed lookups: "))
	if stats.LookupErrors > 0 {
		b.WriteString(color.Yellow.Sprintf("%d\n", stats.LookupErrors))
	} else {
		b.WriteString(color.Green.Sprintf("%d\n", stats.LookupErrors))
	}

	b.WriteString(color.Bold.Sprint("Workers: "))
	b.WriteString(fmt.Sprintf("%d\n", stats.Workers))
	return b.String()
}

// FormatResult renders a traversal the way the command line prints it:
// a header, the visited nodes, elapsed time and node count.
func FormatResult(res *Result) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprintf("------------------- Starting BFS from: %s with depth %d -------------------", res.Start, res.MaxDepth))
	b.WriteString("\n\n")
	b.WriteString(color.Bold.Sprint("Results:"))
	b.WriteString("\n")
	for _, node := range res.Nodes {
		b.WriteString("- ")
		b.WriteString(node)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Time passed: "))
	b.WriteString(fmt.Sprintf("%.6f seconds\n", res.Statistics.Elapsed.Seconds()))
	b.WriteString(color.Bold.Sprint("Nodes found: "))
	b.WriteString(color.Green.Sprintf("%d\n", len(res.Nodes)))
	b.WriteString(color.Gray.Sprint(rule))
	b.WriteString("\n")
	return b.String()
}

// formatRunSummary is the one-line report emitted when a run completes.
func formatRunSummary(res *Result) string {
	mark := color.Green.Sprint("✓")
	if res.Statistics.LookupErrors > 0 {
		mark = color.Yellow.Sprint("⚠")
	}
	return fmt.Sprintf("%s %s: %d nodes within depth %d (%d lookups, %d failed) in %s\n",
		mark, res.Start, len(res.Nodes), res.MaxDepth,
		res.Statistics.Lookups, res.Statistics.LookupErrors, res.Statistics.Elapsed.Round(time.Millisecond))
}
