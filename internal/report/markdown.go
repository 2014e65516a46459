package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxChartActors bounds the works-distribution pie chart; past a dozen
// slices the chart is unreadable anyway.
const maxChartActors = 10

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeActors(md, summary)
	w.writeRuns(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the catalog-wide totals.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Catalog Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Actors", strconv.Itoa(summary.TotalActors)},
			{"Works", strconv.Itoa(summary.TotalWorks)},
			{"Magnets", strconv.Itoa(summary.TotalMagnets)},
		},
	})
	md.PlainText("")
}

// writeActors writes the per-actor breakdown table and, when the
// catalog has works, a works-distribution pie chart.
func (w *MarkdownWriter) writeActors(md *markdown.Markdown, summary *Summary) {
	if len(summary.Actors) == 0 {
		return
	}

	md.H2("Actors")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.Actors))
	for _, actor := range summary.Actors {
		rows = append(rows, []string{
			actor.Name,
			strconv.Itoa(actor.Works),
			strconv.Itoa(actor.Magnets),
			strconv.Itoa(actor.Picked),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Actor", "Works", "Magnets", "Picked"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalWorks > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of works per actor.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Works per Actor"),
		piechart.WithShowData(true),
	)

	charted := 0
	for _, actor := range summary.Actors {
		if actor.Works == 0 {
			continue
		}
		chart.LabelAndIntValue(actor.Name, uint64(actor.Works))
		charted++
		if charted == maxChartActors {
			break
		}
	}
	if charted == 0 {
		return
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRuns writes the recent completed stage runs.
func (w *MarkdownWriter) writeRuns(md *markdown.Markdown, summary *Summary) {
	if len(summary.RecentRuns) == 0 {
		return
	}

	md.H2("Recent Runs")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.RecentRuns))
	for _, run := range summary.RecentRuns {
		rows = append(rows, []string{
			run.At.Format("2006-01-02 15:04"),
			run.Stage,
			formatCounters(run.Counters),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"When", "Stage", "Counters"},
		Rows:   rows,
	})
}
