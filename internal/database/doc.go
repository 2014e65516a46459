// Package database provides the SQLite-backed catalog store for the
// three-level hierarchy: actors, their works, and per-work magnets.
//
// All mutating operations are idempotent upserts (or the documented
// delete-then-insert snapshot for magnets) and each call runs in a
// single transaction, so a crashed stage can always be replayed without
// duplicating rows or exposing half-written state.
package database
