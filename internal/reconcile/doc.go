// Package reconcile holds the pure set algebra behind orphan discovery.
//
// Given a universe (everything that exists) and a reference set (everything
// reachable from a live parent), the orphans are universe minus referenced
// and the missing entries are referenced minus universe. No I/O happens
// here; the package is deliberately trivial to unit test in isolation.
package reconcile
