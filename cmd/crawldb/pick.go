package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hfcj478/Crawl-DB/internal/selector"
)

// NewPickCmd creates the pick command.
func NewPickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Write the best magnet of each work to per-actor pick files",
		Long: `Pick ranks each stored work's magnet candidates and appends the best
one to the owning actor's pick file.

Ranking is deterministic: larger declared size first, then preferred
tag hits, then the page's listing order. Works whose candidates all
lack a parseable size are skipped. Pick files are append-only; reruns
add picks for newly harvested works and never rewrite existing lines.

Pick works entirely offline from the local catalog; no session cookies
are needed.

Examples:
  # Write picks under the default picks directory
  crawldb pick

  # Write picks to a specific directory
  crawldb pick --picks-dir ./picks`,
		Args: cobra.NoArgs,
		RunE: runPickCmd,
	}

	cmd.Flags().String("picks-dir", "",
		"Directory for the per-actor pick files (default: picks under the data dir)")

	return cmd
}

// runPickCmd executes the pick command.
func runPickCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.Flags().Changed("picks-dir") {
		if a.cfg.PicksDir, err = cmd.Flags().GetString("picks-dir"); err != nil {
			return err
		}
	}

	groups, err := a.db.MagnetsByWork(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load magnets: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("no magnets stored, harvest magnets first")
	}

	dir := a.cfg.PicksDirOrDefault()
	sum, err := selector.NewWriter(dir, a.logger).Write(groups)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Picked %d works for %d actors (%d new lines, %d works without a usable size) under %s\n",
		sum.Picked, sum.Actors, sum.Appended, sum.Skipped, dir)
	return nil
}
