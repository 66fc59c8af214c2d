// Package layout maps the configured directory structure onto the roles the
// cleanup engine cares about: which roots form the candidate-orphan file
// universe, which are wholesale-expired caches, and which prefixes are
// protected from deletion no matter what the reference sets say.
package layout
