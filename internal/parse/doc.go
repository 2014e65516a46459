// Package parse extracts typed catalog records from raw page content.
//
// Extractors are pure functions over page bytes: they never fetch, never
// retry, and never fail on malformed markup. When the expected container
// is missing entirely (usually an interstitial or an expired session in
// place of the real page) they return ErrNoContainer so the caller can
// log a diagnostic and continue with an empty result.
package parse
