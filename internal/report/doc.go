// Package report summarizes the harvested catalog and writes the
// summary in several output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown for documentation and sharing
//
// Design decision: the summary data structure is separated from the
// writers so new output formats can be added without touching how the
// summary is built from the catalog.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
