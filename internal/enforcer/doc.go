// Package enforcer drives the compliance lifecycle. A periodic tick
// reconciles every tracked member against the live guild roster, executes
// the single due transition per member, and posts operator updates. A
// separate sweeper purges long-removed records, and an optional daily job
// posts a fun fact.
//
// The tick is crash-safe by construction: each executor re-reads the member
// row before acting and performs the irreversible side effect before
// committing the new state, so a replayed action is either skipped or
// harmless.
package enforcer
