package main

import (
	"github.com/spf13/cobra"

	"github.com/hfcj478/Crawl-DB/internal/crawler"
)

// NewMagnetsCmd creates the magnets command.
func NewMagnetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magnets",
		Short: "Harvest each work's magnet candidates (stage 3)",
		Long: `Magnets fetches the detail page of every stored work and replaces its
stored magnet snapshot with what the page lists now.

Each work is one unit of progress. The stage checkpoints each work it
completes, so an interrupted or partially failed run resumes with the
first work not yet done. A detail
page that lists no magnets clears the work's snapshot; the page is the
source of truth.

Examples:
  # Harvest magnets for every stored work
  crawldb magnets

  # Only these actors' works, leaving the checkpoint untouched
  crawldb magnets --actor "Name One"`,
		Args: cobra.NoArgs,
		RunE: runMagnetsCmd,
	}

	cmd.Flags().StringSliceP("actor", "a", nil,
		"Restrict the run to this actor name, repeatable")

	return cmd
}

// runMagnetsCmd executes the magnets command.
func runMagnetsCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	actors, err := cmd.Flags().GetStringSlice("actor")
	if err != nil {
		return err
	}

	coord, err := a.newCoordinator()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	return coord.RunMagnets(ctx, crawler.MagnetsOptions{Actors: actors})
}
