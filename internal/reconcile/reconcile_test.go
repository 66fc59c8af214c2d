package reconcile_test

import (
	"testing"

	"msgvault/internal/reconcile"
)

func TestDiffBasics(t *testing.T) {
	universe := reconcile.NewSet("a", "b", "c")
	referenced := reconcile.NewSet("b", "c", "d")

	orphans, missing := reconcile.Diff(universe, referenced)

	if len(orphans) != 1 || !orphans.Contains("a") {
		t.Fatalf("unexpected orphans: %v", orphans.Values())
	}
	if len(missing) != 1 || !missing.Contains("d") {
		t.Fatalf("unexpected missing: %v", missing.Values())
	}
}

func TestDiffAlgebra(t *testing.T) {
	universe := reconcile.NewSet(1, 2, 3, 4, 5)
	referenced := reconcile.NewSet(2, 4, 6, 8)

	orphans, missing := reconcile.Diff(universe, referenced)

	// orphan ∩ referenced = ∅
	for v := range orphans {
		if referenced.Contains(v) {
			t.Fatalf("orphan %d is referenced", v)
		}
	}
	// missing ∩ universe = ∅
	for v := range missing {
		if universe.Contains(v) {
			t.Fatalf("missing %d exists in universe", v)
		}
	}
	// universe = (universe ∩ referenced) ∪ orphans
	rebuilt := make(reconcile.Set[int])
	for v := range universe {
		if referenced.Contains(v) {
			rebuilt.Add(v)
		}
	}
	rebuilt.AddAll(orphans)
	if len(rebuilt) != len(universe) {
		t.Fatalf("partition does not rebuild universe: %v", rebuilt.Values())
	}
	for v := range universe {
		if !rebuilt.Contains(v) {
			t.Fatalf("universe member %d lost", v)
		}
	}
}

func TestDiffEmptySets(t *testing.T) {
	orphans, missing := reconcile.Diff(reconcile.NewSet[string](), reconcile.NewSet[string]())
	if len(orphans) != 0 || len(missing) != 0 {
		t.Fatal("expected empty results for empty inputs")
	}

	orphans, missing = reconcile.Diff(reconcile.NewSet("x"), reconcile.NewSet[string]())
	if len(orphans) != 1 || len(missing) != 0 {
		t.Fatal("expected unreferenced universe to be fully orphaned")
	}
}
