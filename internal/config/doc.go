// Package config loads, normalizes, and validates msgvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives the blob-directory layout from the
// data root when individual directories are not overridden. The Config type
// centralizes every knob the CLI and cleanup engine need.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation
// errors.
package config
