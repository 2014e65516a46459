package main

import (
	"github.com/spf13/cobra"
)

// NewActorsCmd creates the actors command.
func NewActorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actors",
		Short: "Harvest the collected-actors listing (stage 1)",
		Long: `Actors walks the collected-actors listing of the logged-in account and
stores every actor it finds.

The stage is idempotent: rerunning it refreshes the stored listing and
never duplicates actors.

Examples:
  # Harvest the collection
  crawldb actors

  # With verbose logging
  crawldb actors -v`,
		Args: cobra.NoArgs,
		RunE: runActorsCmd,
	}
}

// runActorsCmd executes the actors command.
func runActorsCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	coord, err := a.newCoordinator()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	return coord.RunActors(ctx, a.cfg.CollectionURL())
}
