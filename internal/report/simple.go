package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether actors without works are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show actors without works.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("CATALOG SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Actors: %d  Works: %d  Magnets: %d\n",
		summary.TotalActors, summary.TotalWorks, summary.TotalMagnets)
	sb.WriteString("\n")

	if len(summary.Actors) > 0 {
		sb.WriteString("ACTORS\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, actor := range summary.Actors {
			if actor.Works == 0 && !w.showEmpty {
				continue
			}
			fmt.Fprintf(&sb, "  %-30s works=%-5d magnets=%-5d picked=%d\n",
				actor.Name, actor.Works, actor.Magnets, actor.Picked)
		}
		sb.WriteString("\n")
	}

	if len(summary.RecentRuns) > 0 {
		sb.WriteString("RECENT RUNS\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, run := range summary.RecentRuns {
			fmt.Fprintf(&sb, "  %s  %-16s %s\n",
				run.At.Format("2006-01-02 15:04"), run.Stage, formatCounters(run.Counters))
		}
	}

	return io.WriteString(w.output, sb.String())
}

// formatCounters renders a counter map as "key=value" pairs in sorted
// key order, so the same run always renders the same line.
func formatCounters(counters map[string]int) string {
	keys := make([]string, 0, len(counters))
	for key := range counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counters[key]))
	}
	return strings.Join(parts, " ")
}
