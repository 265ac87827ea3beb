// Package lifecycle holds the pure escalation decision logic. It maps a
// member's stored state plus their current compliance to the single
// transition that is due, leaving all side effects to the enforcer.
package lifecycle
