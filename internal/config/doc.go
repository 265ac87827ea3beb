// Package config loads, normalizes, and validates gatewarden configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GATEWARDEN_BOT_TOKEN. The Config type centralizes every knob the daemon
// and CLI need: lifecycle windows, tick cadence, chat transport settings,
// and cleanup retention.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
