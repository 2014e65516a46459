// Package main provides the entry point for the crawldb CLI.
//
// crawldb harvests a personal media catalog in three stages: the
// collected actors, each actor's works, and each work's magnet
// candidates. Results land in a local SQLite catalog, and the pick
// command distills them into per-actor magnet lists.
//
// Usage:
//
//	crawldb run
//	crawldb actors
//	crawldb works --actor NAME
//
// See --help for all available options.
package main

// main is the entry point for crawldb.
func main() {
	Execute()
}
