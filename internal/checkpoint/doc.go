// Package checkpoint persists crawl progress so an interrupted stage can
// resume where it stopped.
//
// The checkpoint is a single JSON document keyed by stage name and
// rewritten atomically on every update; a checkpoint present for a stage
// always refers to a valid in-progress run, because stages clear it on
// completion and only advance it after the corresponding catalog write
// committed. The package also keeps the append-only history log of
// completed stage runs, which the crawl writes but never reads.
package checkpoint
