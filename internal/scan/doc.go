// Package scan enumerates blob files on disk for reconciliation.
//
// Listing failures are reported as errors, never as empty sets, so callers
// can always tell "no files" apart from "could not determine". A root that
// does not exist yet is the one exception: it legitimately holds no files.
package scan
