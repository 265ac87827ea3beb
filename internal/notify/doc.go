// Package notify defines the message delivery surface used by the enforcer,
// the classification of delivery failures, and the rendered message
// templates for each enforcement stage.
package notify
