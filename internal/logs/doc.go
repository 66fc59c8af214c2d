// Package logs reads the msgvault log file for the CLI: the last N lines for
// a quick look, or a polling follow for watching a cleanup run live.
package logs
