// Package roster persists tracked members and guild configuration in SQLite
// and exposes helpers for driving the compliance lifecycle.
//
// The Store manages database connections, schema initialization, member and
// guild queries, the key-value table, and removed-record purging. A member
// row captures every lifecycle field (state, deadlines, stage timestamps,
// retry count) so the enforcer can decide transitions without additional
// state; the row is the single source of truth.
//
// Upserts happen as one statement each, which is what keeps the
// single-writer-per-member discipline honest under concurrent CLI access.
// Schema changes bump the version in schema.go; old databases are rejected
// rather than migrated.
package roster
