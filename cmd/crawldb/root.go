// Package main provides the entry point for the crawldb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for crawldb.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawldb",
		Short: "Resumable harvester for a personal media catalog",
		Long: `crawldb harvests a personal media catalog in three stages:
collected actors, each actor's works, and each work's magnet candidates.

Stages run one at a time and checkpoint their position, so an
interrupted run resumes where it stopped. The catalog lives in a local
SQLite database; the pick command distills it into per-actor magnet
lists ready for a torrent client.

A cookie.json file with a logged-in browser session is required for
crawling. Use "crawldb init" to generate a starter configuration.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .crawldb in current or home directory)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory holding the catalog database, checkpoint, and history (default: XDG data dir)")
	cmd.PersistentFlags().String("cookie", "",
		"Path of the cookie.json session bundle (default: ./cookie.json)")

	// Add subcommands
	cmd.AddCommand(NewActorsCmd())
	cmd.AddCommand(NewWorksCmd())
	cmd.AddCommand(NewMagnetsCmd())
	cmd.AddCommand(NewPickCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
