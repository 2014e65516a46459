package model

import "strings"

// Actor is a top-level catalog entity: one collected actor from the
// source's collection page.
//
// Name is the unique key in the catalog database. Listings that order
// actors do so case-insensitively.
type Actor struct {
	// Name is the actor's display name as extracted from the page.
	Name string

	// Href is the absolute URL of the actor's works page.
	Href string
}

// Valid reports whether the record can be stored.
// An actor without a name cannot be keyed and is dropped.
func (a Actor) Valid() bool {
	return strings.TrimSpace(a.Name) != ""
}
