// Package janitor reconciles the vault's two stores: the SQLite database of
// typed records and the filesystem blob directories. Crashes, partial writes,
// and concurrent mutation leave rows pointing at vanished files, files no row
// references, and child rows whose parents were deleted without cascade; the
// janitor discovers that divergence and removes the safe-to-delete portion.
// Anything written inside the configured recency window before a run is left
// untouched, so a blob whose record has not committed yet is never mistaken
// for an orphan.
//
// Discovery runs entirely off the caller's goroutine and inside one read
// transaction plus one pass over the blob directories, gated throughout by
// the lifecycle.Gate: the instant the process stops being foreground and
// runnable, the attempt is abandoned whole rather than yielding a partial
// snapshot. The Finder retries discovery within a fixed budget, the
// Processor deletes from a fresh snapshot per pass under the same abort
// discipline, and the Coordinator persists completion metadata only after a
// fully successful commit run.
//
// Referenced-but-missing entries are the opposite failure mode: a live record
// pointing at a file that is gone. Those are reported and deliberately never
// repaired, since either remediation would destroy user-visible content.
package janitor
