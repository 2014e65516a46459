package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hfcj478/Crawl-DB/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the harvested catalog",
		Long: `Report summarizes the local catalog: totals, a per-actor breakdown,
and the most recent completed stage runs.

The summary is plain text by default; --json and --markdown select
other formats, and --output additionally writes the summary to a file.

Report works entirely offline from the local catalog.

Examples:
  # Print the summary to the terminal
  crawldb report

  # Machine-readable output
  crawldb report --json

  # Markdown file for sharing
  crawldb report --markdown -o catalog.md`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the summary to this file")
	cmd.Flags().Bool("show-empty", false,
		"Include actors without harvested works in the text output")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	asJSON, _ := cmd.Flags().GetBool("json")
	asMarkdown, _ := cmd.Flags().GetBool("markdown")
	if asJSON && asMarkdown {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	summary, err := report.BuildSummary(context.Background(), a.db, a.history)
	if err != nil {
		return err
	}

	writer := reportWriter(cmd, cmd.OutOrStdout(), asJSON, asMarkdown)
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(path) //nolint:gosec // user-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = report.NewMultiWriter(writer, reportWriter(cmd, f, asJSON, asMarkdown))
	}

	_, err = writer.Write(summary)
	return err
}

// reportWriter picks the writer for the requested format.
func reportWriter(cmd *cobra.Command, out io.Writer, asJSON, asMarkdown bool) report.Writer {
	switch {
	case asJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case asMarkdown:
		return report.NewMarkdownWriter(out)
	default:
		showEmpty, _ := cmd.Flags().GetBool("show-empty")
		return report.NewSimpleWriter(out, report.WithShowEmpty(showEmpty))
	}
}
