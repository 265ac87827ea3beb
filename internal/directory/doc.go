// Package directory defines the live membership view the enforcer consults
// on every tick. Implementations wrap the chat platform's REST API.
package directory
