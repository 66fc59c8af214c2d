package reconcile

// Set is a collection of unique comparable values.
type Set[T comparable] map[T]struct{}

// NewSet builds a set from the given values.
func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value.
func (s Set[T]) Add(value T) {
	s[value] = struct{}{}
}

// Contains reports membership.
func (s Set[T]) Contains(value T) bool {
	_, ok := s[value]
	return ok
}

// AddAll inserts every value from other.
func (s Set[T]) AddAll(other Set[T]) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Values returns the members in unspecified order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// Diff computes orphans (in universe, not referenced) and missing
// (referenced, not in universe).
func Diff[T comparable](universe, referenced Set[T]) (orphans, missing Set[T]) {
	orphans = make(Set[T])
	for v := range universe {
		if !referenced.Contains(v) {
			orphans.Add(v)
		}
	}
	missing = make(Set[T])
	for v := range referenced {
		if !universe.Contains(v) {
			missing.Add(v)
		}
	}
	return orphans, missing
}
