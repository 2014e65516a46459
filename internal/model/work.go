package model

import "strings"

// Work is a single release owned by an actor. The pair (actor, code) is
// the unique key in the catalog database.
type Work struct {
	// Code is the release code shown on the work card (e.g. "ABC-123").
	Code string

	// Title is the full card title. May equal Code when the page carries
	// no separate title text.
	Title string

	// Href is the absolute URL of the work's detail page.
	Href string
}

// Valid reports whether the record can be stored.
// Records missing the code or the detail link are dropped silently by
// the store and never counted.
func (w Work) Valid() bool {
	return strings.TrimSpace(w.Code) != "" && strings.TrimSpace(w.Href) != ""
}
