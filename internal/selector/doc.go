// Package selector picks the best magnet candidate for each stored
// work and maintains the per-actor pick files.
//
// The ranking is deterministic: larger declared size wins, preferred
// tag hits break size ties, and the page's listing order breaks
// everything else. Candidates without a parseable size never win; a
// work whose magnets all lack one yields no pick at all rather than an
// arbitrary one.
package selector
