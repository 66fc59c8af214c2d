// Package main hosts the msgvault CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the vault maintenance engine: audit
// reports orphaned data without touching it, clean reclaims it, and status
// shows database health and cleanup history. It centralizes configuration
// resolution, the single-instance lock, and logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
