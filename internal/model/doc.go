// Package model defines the typed records exchanged between the page
// extractors, the crawl stages, and the catalog database.
//
// Extractors produce these values at the boundary with raw page content;
// each type carries a Valid method so malformed records can be dropped
// before they reach storage.
package model
