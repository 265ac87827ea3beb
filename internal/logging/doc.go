// Package logging builds slog loggers for the daemon and CLI.
//
// It offers a console handler with compact single-line output, a JSON
// handler for machine consumption, attr helpers, and NewFromConfig which
// tees records to stdout and the configured log directory.
package logging
