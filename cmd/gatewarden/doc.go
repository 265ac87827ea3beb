// Command gatewarden is the operator CLI. It reads and adjusts the roster
// database directly; the daemon picks up changes on its next tick.
package main
