// Package daemon wires the enforcement manager, roster store, and instance
// lock into a single process lifecycle.
package daemon
