// Package crawler drives the three harvest stages against the catalog
// site: collected actors, per-actor works, and per-work magnets.
//
// The Coordinator runs one stage at a time, strictly serialized: it
// paginates through the fetch and parse collaborators, writes through
// the catalog database, and advances the stage checkpoint only after
// the corresponding write committed, recording the completed unit. A
// per-unit fetch failure (one actor in Stage 2, one work in Stage 3)
// is logged and skipped while the checkpoint stays frozen at the last
// unit completed before it, so re-invoking the stage retries the
// failure; store failures abort the stage outright. Replaying
// already-processed units is safe because every write is idempotent.
package crawler
